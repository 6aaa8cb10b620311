package logging

import (
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for planner logging.

// SearchID adds a search ID field.
func SearchID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("search_id", id)
	}
}

// Phase adds a search phase field.
func Phase(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", p)
	}
}

// ToolName adds a tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// Args adds an argument tuple field.
func Args(args []string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("args", "["+strings.Join(args, ", ")+"]")
	}
}

// Step adds a plan depth field.
func Step(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", n)
	}
}

// Expansion adds an expansion counter field.
func Expansion(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("expansion", n)
	}
}

// Float adds a float field rendered with three decimals.
func Float(key string, v float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, strconv.FormatFloat(v, 'f', 3, 64))
	}
}

// Score adds the g, h and f fields of a successor.
func Score(g, h, f float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return Float("f", f)(Float("h", h)(Float("g", g)(e)))
	}
}

// Probability adds prob and combined_p fields.
func Probability(prob, combined float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return Float("combined_p", combined)(Float("prob", prob)(e))
	}
}

// Oracle adds an oracle operation field.
func Oracle(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("oracle_op", op)
	}
}

// Fallback adds a fallback flag.
func Fallback(used bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("fallback", used)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Goal adds a goal field.
func Goal(goal string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("goal", goal)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Count adds an integer field with custom key.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
