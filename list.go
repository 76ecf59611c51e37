package serprog

import (
	"strings"

	"github.com/golang/glog"
)

// Candidate is a device considered during autodetection
type Candidate struct {
	Name  string // name passed to Open, e.g. COM3 or /dev/ttyUSB0
	Path  string // underlying driver path the name resolves to
	Score int
}

// ScoreRule assigns Score to driver paths starting with Prefix (case-insensitive)
type ScoreRule struct {
	Prefix string
	Score  int
}

// BaselineScore is given to a resolved path no rule recognizes
const BaselineScore = 2

// WindowsScoreRules rank QueryDosDevice targets. Order matters: the first
// matching prefix wins.
var WindowsScoreRules = []ScoreRule{
	{Prefix: `\device\usbser`, Score: 4},
	{Prefix: `\device\usb`, Score: 3},
	{Prefix: `\device\serial`, Score: 1},
}

// LinuxScoreRules rank "subsystem/driver" strings resolved through sysfs
var LinuxScoreRules = []ScoreRule{
	{Prefix: "usb-serial", Score: 4},
	{Prefix: "usb", Score: 3},
	{Prefix: "serial-base", Score: 1},
	{Prefix: "platform", Score: 1},
	{Prefix: "pnp", Score: 1},
}

// ScorePath returns the score of the first rule matching path, or BaselineScore
func ScorePath(path string, rules []ScoreRule) int {
	lower := strings.ToLower(path)
	for _, rule := range rules {
		if strings.HasPrefix(lower, strings.ToLower(rule.Prefix)) {
			return rule.Score
		}
	}
	return BaselineScore
}

// ScoreCandidates resolves every name and scores the ones that exist.
// Names resolve reports as missing are dropped.
func ScoreCandidates(names []string, resolve func(name string) (string, bool), rules []ScoreRule) []Candidate {
	var candidates []Candidate
	for _, name := range names {
		path, ok := resolve(name)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:  name,
			Path:  path,
			Score: ScorePath(path, rules),
		})
	}
	return candidates
}

// SelectDevice returns the highest scoring candidate, keeping the earliest on
// ties, or fallback when there are no candidates.
func SelectDevice(candidates []Candidate, fallback string) string {
	selected := fallback
	best := 0
	for _, c := range candidates {
		if c.Score > best {
			best = c.Score
			selected = c.Name
			glog.V(1).Infof("%s: %s [%d]", c.Name, c.Path, c.Score)
		}
	}
	glog.V(1).Infof("Selected device: %s", selected)
	return selected
}
