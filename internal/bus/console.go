package bus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tracelens/agent/internal/telemetry/ids"
	"github.com/tracelens/agent/internal/telemetry/logging"
)

// Console is the console-logger subscriber of §4.6: indents by depth,
// coalesces exact-repeat lines ("… ×N"), and when an application frame
// calls out into a dependency prints only the top-most dependency frame,
// muting deeper dependency frames until that top frame exits. This never
// affects the structured event stream's own depth bookkeeping — muted
// events are simply not printed, not dropped upstream.
type Console struct {
	mu     sync.Mutex
	logger *logging.Logger

	lastLine string
	repeats  int

	muted map[ids.ScopeID]int // scope id -> depth at which muting started, or absent
}

// NewConsole creates a console logger subscriber.
func NewConsole(logger *logging.Logger) *Console {
	return &Console{logger: logger, muted: make(map[ids.ScopeID]int)}
}

// Subscriber returns the Bus Subscriber function for this console logger.
func (c *Console) Subscriber() Subscriber {
	return c.handle
}

func (c *Console) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mutedAt, ok := c.muted[e.ScopeID]; ok {
		if e.Depth > mutedAt {
			return // still inside the muted dependency subtree
		}
		// depth returned to (or above) the muting frame: print this event,
		// then stop muting if it was the exit that closed that frame.
		if e.Phase == PhaseExit && e.Depth <= mutedAt {
			delete(c.muted, e.ScopeID)
		}
	} else if e.Phase == PhaseEnter && !e.App {
		// top-most dependency frame: print it, then mute anything deeper
		// until this frame's own exit.
		c.muted[e.ScopeID] = e.Depth
	}

	c.printLine(formatLine(e))
}

func (c *Console) printLine(line string) {
	if line == c.lastLine {
		c.repeats++
		return
	}
	c.flushRepeats()
	c.lastLine = line
	c.logger.Info(line)
}

func (c *Console) flushRepeats() {
	if c.repeats > 0 {
		c.logger.Info(fmt.Sprintf("%s … ×%d", c.lastLine, c.repeats+1))
	}
	c.repeats = 0
}

// Flush prints any pending coalesced-repeat summary. Call on scope close
// so a trailing run of repeats isn't lost.
func (c *Console) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushRepeats()
	c.lastLine = ""
}

func formatLine(e Event) string {
	indent := strings.Repeat("  ", max(e.Depth-1, 0))
	switch e.Phase {
	case PhaseEnter:
		return fmt.Sprintf("%s-> %s (%s:%s)", indent, displayName(e), e.File, lineString(e.Line))
	case PhaseExit:
		marker := "<-"
		if e.Threw {
			marker = "<-!"
		} else if e.Unawaited {
			marker = "<-~"
		}
		return fmt.Sprintf("%s%s %s", indent, marker, displayName(e))
	default:
		return indent
	}
}

func displayName(e Event) string {
	if e.FuncName == "" {
		return "(anonymous)"
	}
	return e.FuncName
}

func lineString(line *int) string {
	if line == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *line)
}
