// Package resources keeps the files rendered for the dashboard (track maps) in a
// directory served by the web server. A file is built once and reused.
package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"f1visualizer/pkg/layout"
	"f1visualizer/pkg/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDir = "./resources"
	// URLPrefix is where the web server exposes the directory.
	URLPrefix = "/resources/"
)

type builder func(ctx context.Context, filePath string) error

type Resource struct {
	id      string
	dir     string
	builder builder
	prefix  string
	suffix  string
	_type   string
}

type Manager struct {
	dir string
}

// NewManager creates dir if it does not exist.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "resources: creating %s", dir)
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) Dir() string {
	return m.dir
}

// BuildTrackMap draws the driving line of a fastest lap, as svg or png.
func (m *Manager) BuildTrackMap(ctx context.Context, session *model.Session, ft model.FastestLapTrace, png bool) (Resource, error) {
	r := Resource{
		dir:    m.dir,
		prefix: "track_",
		suffix: ".svg",
		_type:  "svg-track",
		builder: func(ctx context.Context, filePath string) error {
			return layout.BuildLayoutSVG(filePath, ft.Samples, ft.Driver.TeamColor)
		},
	}
	if png {
		r.suffix = ".png"
		r._type = "track"
		r.builder = func(ctx context.Context, filePath string) error {
			return layout.BuildLayoutPNG(filePath, ft.Samples, ft.Driver.TeamColor)
		}
	}
	return r.build(ctx, fmt.Sprintf("%d_%s_%d", session.Info.Key, ft.Driver.Code, ft.Lap.Number))
}

func (r Resource) buildFilePath(id string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s%s%s", r.prefix, id, r.suffix))
}

func (r Resource) String() string {
	return fmt.Sprintf("ID: %s, Type: %s", r.id, r._type)
}

func (r Resource) FilePath() string {
	return r.buildFilePath(r.id)
}

func (r Resource) FileName() string {
	return fmt.Sprintf("%s%s%s", r.prefix, r.id, r.suffix)
}

// URL is the path the web server serves the file under.
func (r Resource) URL() string {
	return URLPrefix + r.FileName()
}

func (r *Resource) build(ctx context.Context, id string) (Resource, error) {
	if id == "" {
		return *r, errors.New("resources: id cannot be empty")
	}
	filePath := r.buildFilePath(id)
	if _, err := os.Stat(filePath); err == nil {
		logrus.Debugf("Reusing resource %s", Resource{id: id, _type: r._type})
	} else if os.IsNotExist(err) {
		if err := ctx.Err(); err != nil {
			return *r, err
		}
		if err := r.builder(ctx, filePath); err != nil {
			// leave nothing half written behind
			_ = os.Remove(filePath)
			logrus.WithError(err).Errorf("Error building resource %s", filePath)
			return *r, err
		}
		logrus.WithField("path", filePath).Infof("Built resource %s", Resource{id: id, _type: r._type})
	} else {
		return *r, err
	}

	r.id = id
	return *r, nil
}
