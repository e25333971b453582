package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

type fadeTarget struct {
	id   int
	from int
	to   int
}

// Ducker fades down every other PulseAudio playback stream while the
// co-host voice is speaking, then restores them. Streams whose
// application.name matches selfNames are left alone so the co-host
// never ducks itself.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int
	minVolume   int
	factor      float64
	fade        time.Duration
}

func NewDucker(selfNames []string, minVolume int, factor float64, fade time.Duration) *Ducker {
	if minVolume < 0 {
		minVolume = 0
	}
	if minVolume > 150 {
		minVolume = 150
	}
	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		minVolume:   minVolume,
		factor:      factor,
		fade:        fade,
	}
}

// Duck lowers every foreign stream to current*factor, clamped at
// minVolume. Calling Duck while already active is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.originalVol = make(map[int]int)
	var targets []fadeTarget

	for _, s := range streams {
		if d.isSelfStream(s) {
			continue
		}

		target := float64(s.Volume) * d.factor
		if target < float64(d.minVolume) {
			target = float64(d.minVolume)
		}
		if target > 150 {
			target = 150
		}

		d.originalVol[s.ID] = s.Volume
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: int(math.Round(target))})
	}

	if len(targets) > 0 {
		if err := fadeInputs(ctx, targets, d.fade); err != nil {
			return err
		}
	}
	d.active = true
	return nil
}

// Unduck restores the volumes recorded by the matching Duck. Streams
// that appeared while ducked are left untouched.
func (d *Ducker) Unduck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelfStream(s) {
			continue
		}
		orig, ok := d.originalVol[s.ID]
		if !ok {
			continue
		}
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: orig})
	}

	if len(targets) > 0 {
		if err := fadeInputs(ctx, targets, d.fade); err != nil {
			return err
		}
	}

	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelfStream(s streamInfo) bool {
	for _, name := range d.selfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

// fadeInputs steps each sink input from its current volume to the
// target over the fade duration.
func fadeInputs(ctx context.Context, targets []fadeTarget, duration time.Duration) error {
	if duration <= 0 {
		for _, t := range targets {
			if err := setSinkInputVolume(ctx, t.id, t.to); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}
		return nil
	}

	const minStepDuration = 10 * time.Millisecond

	steps := int(duration / minStepDuration)
	if steps < 1 {
		steps = 1
	}
	stepDuration := duration / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := setSinkInputVolume(ctx, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps {
			time.Sleep(stepDuration)
		}
	}
	return nil
}

func listSinkInputs(ctx context.Context) ([]streamInfo, error) {
	cmd := exec.CommandContext(ctx, "pactl", "list", "sink-inputs")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	parts := strings.Split(string(out), "Sink Input #")
	if len(parts) <= 1 {
		return nil, nil
	}

	var res []streamInfo
	for i := 1; i < len(parts); i++ {
		block := parts[i]

		newline := strings.IndexByte(block, '\n')
		if newline <= 0 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(block[:newline]))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id}
		for _, line := range strings.Split(block[newline+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			if strings.HasPrefix(line, "application.name =") && s.AppName == "" {
				if idx := strings.Index(line, "\""); idx >= 0 {
					rest := line[idx+1:]
					if idx2 := strings.Index(rest, "\""); idx2 >= 0 {
						s.AppName = rest[:idx2]
					}
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 150 {
		percent = 150
	}
	cmd := exec.CommandContext(ctx, "pactl", "set-sink-input-volume",
		strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	return cmd.Run()
}
