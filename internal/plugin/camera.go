package plugin

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/metadata"
)

const unknownCamera = "unknown"

// CameraCount is one row of a camera summary.
type CameraCount struct {
	Camera string
	Files  int
}

// CameraSummary records the camera of every input and reports the totals
// once the run has finished.
type CameraSummary struct {
	fs afero.Fs

	mu      sync.Mutex
	summary []CameraCount
}

func NewCameraSummary(fs afero.Fs) *CameraSummary { return &CameraSummary{fs: fs} }

func (c *CameraSummary) Name() string          { return MetadataName }
func (c *CameraSummary) Kind() core.PluginKind { return core.PluginBatch }
func (c *CameraSummary) ConcurrentSafe() bool  { return true }
func (c *CameraSummary) PreLoad() error        { return nil }
func (c *CameraSummary) Actions() []string     { return []string{"Camera Summary"} }

// Run passes the image through and emits the input's camera name.
func (c *CameraSummary) Run(_ string, img core.Image, si core.SaveInfo) (core.Image, any, error) {
	f, err := c.fs.Open(si.InputPath)
	if err != nil {
		return img, nil, err
	}
	defer f.Close()

	info, err := metadata.Read(f)
	if err != nil {
		log.WithField("input", si.InputPath).Debugf("exif: %v", err)
	}
	camera := info.Camera()
	if camera == "" {
		camera = unknownCamera
	}
	return img, camera, nil
}

func (c *CameraSummary) PostLoad(runID string, infos []core.SideInfo) {
	counts := map[string]int{}
	for _, in := range infos {
		if name, ok := in.Data.(string); ok {
			counts[name]++
		}
	}

	summary := make([]CameraCount, 0, len(counts))
	for name, n := range counts {
		summary = append(summary, CameraCount{Camera: name, Files: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Files != summary[j].Files {
			return summary[i].Files > summary[j].Files
		}
		return summary[i].Camera < summary[j].Camera
	})

	for _, row := range summary {
		log.WithFields(log.Fields{"run": runID, "camera": row.Camera}).Infof("%d file(s)", row.Files)
	}

	c.mu.Lock()
	c.summary = summary
	c.mu.Unlock()
}

// Summary returns the counts of the last finished run.
func (c *CameraSummary) Summary() []CameraCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CameraCount(nil), c.summary...)
}
