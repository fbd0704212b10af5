// hooks.go implements the pipeline's three extension points as ordered
// transform chains. Each registered transform receives the current value
// and returns a (possibly unmodified) replacement; chains execute
// synchronously, in registration order, on the calling goroutine. A
// transform that fails aborts rendering into the error-HTML fallback.

package render

import "sync"

// Transform rewrites one rendering intermediate: markup before parsing,
// the HTML fragment after parsing, or the merged document page.
type Transform func(s string) (string, error)

// Stage identifies one of the pipeline's extension points.
type Stage int

const (
	// StageBeforeRender transforms run on the markup text before parsing.
	StageBeforeRender Stage = iota
	// StageAfterFragment transforms run on the parsed HTML fragment.
	StageAfterFragment
	// StageAfterDocument transforms run on the merged theme page.
	StageAfterDocument

	stageCount
)

// chain is an ordered list of transforms plus at most one
// single-subscriber callback that runs after them.
type chain struct {
	mu         sync.Mutex
	transforms []Transform
	subscriber Transform
}

func (c *chain) register(t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transforms = append(c.transforms, t)
}

func (c *chain) setSubscriber(t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriber = t
}

func (c *chain) run(s string) (string, error) {
	c.mu.Lock()
	transforms := make([]Transform, len(c.transforms))
	copy(transforms, c.transforms)
	subscriber := c.subscriber
	c.mu.Unlock()

	var err error
	for _, t := range transforms {
		if s, err = t(s); err != nil {
			return "", err
		}
	}
	if subscriber != nil {
		if s, err = subscriber(s); err != nil {
			return "", err
		}
	}
	return s, nil
}

// RegisterHook appends a transform to the given extension point.
func (p *Pipeline) RegisterHook(stage Stage, t Transform) {
	p.chains[stage].register(t)
}

// SetHookSubscriber installs the single-subscriber callback for the
// given extension point, replacing any previous one.
func (p *Pipeline) SetHookSubscriber(stage Stage, t Transform) {
	p.chains[stage].setSubscriber(t)
}
