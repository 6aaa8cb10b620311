// Package travel is a sample tool configuration: booking a trip in four
// steps (origin, destination, transport, confirmation).
package travel

import (
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Tool names.
const (
	SetOrigin       = "set_origin"
	SetDestination  = "set_destination"
	SelectTransport = "select_transport"
	ConfirmBooking  = "confirm_booking"
)

// Defaults used when the goal text names no city.
const (
	DefaultOrigin      = "New York"
	DefaultDestination = "Boston"
)

// Modes lists the transport modes select_transport accepts.
var Modes = []string{"train", "flight", "bus"}

// Booking is the progress of one trip booking. Empty strings are unset.
type Booking struct {
	Origin      string
	Destination string
	Transport   string
	Confirmed   bool
}

// IsGoal reports whether the booking is confirmed.
func (b Booking) IsGoal() bool {
	return b.Confirmed
}

// Fields implements state.State.
func (b Booking) Fields() state.Fields {
	return state.Fields{
		{Name: "origin", Value: b.Origin},
		{Name: "destination", Value: b.Destination},
		{Name: "transport", Value: b.Transport},
		{Name: "booking_confirmed", Value: b.Confirmed},
	}
}

// Tools returns the four booking tools in pipeline order.
func Tools() []tool.Tool[Booking] {
	return []tool.Tool[Booking]{
		tool.NewBuilder[Booking](SetOrigin).
			WithDescription("Set the origin city for travel").
			WithCost(1.0).
			WithArgs("city").
			WithPrecondition(func(b Booking) bool { return b.Origin == "" }).
			WithEffect(func(b Booking, args tool.Args) (Booking, error) {
				b.Origin = args[0]
				return b, nil
			}).
			MustBuild(),

		tool.NewBuilder[Booking](SetDestination).
			WithDescription("Set the destination city").
			WithCost(1.0).
			WithArgs("city").
			WithPrecondition(func(b Booking) bool { return b.Origin != "" && b.Destination == "" }).
			WithEffect(func(b Booking, args tool.Args) (Booking, error) {
				b.Destination = args[0]
				return b, nil
			}).
			MustBuild(),

		tool.NewBuilder[Booking](SelectTransport).
			WithDescription("Choose a transport mode (e.g. train, flight)").
			WithCost(1.2).
			WithArgs("mode").
			WithPrecondition(func(b Booking) bool { return b.Destination != "" && b.Transport == "" }).
			WithEffect(func(b Booking, args tool.Args) (Booking, error) {
				b.Transport = args[0]
				return b, nil
			}).
			MustBuild(),

		tool.NewBuilder[Booking](ConfirmBooking).
			WithDescription("Finalize the booking and mark as confirmed").
			WithCost(2.0).
			WithPrecondition(func(b Booking) bool { return b.Transport != "" && !b.Confirmed }).
			WithEffect(func(b Booking, _ tool.Args) (Booking, error) {
				b.Confirmed = true
				return b, nil
			}).
			MustBuild(),
	}
}

// Registry returns the booking tools as a registry.
func Registry() tool.Registry[Booking] {
	return tool.MustRegistry(Tools()...)
}
