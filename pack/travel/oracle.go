package travel

import (
	"github.com/felixgeelhaar/toolplan/infrastructure/oracle"
)

// FallbackConfig ranks tools by the earliest missing field and extracts
// cities around "from" and "to" in the goal text. Without the keywords the
// first city is the origin and the destination is any other city.
func FallbackConfig(probability oracle.ProbabilitySource) oracle.FallbackConfig {
	return oracle.FallbackConfig{
		Order: []string{SetOrigin, SetDestination, SelectTransport, ConfirmBooking},
		Hints: map[string]oracle.ArgHint{
			SetOrigin: oracle.PhraseAfter("from", 0, DefaultOrigin,
				oracle.AvoidAfter("to")),
			SetDestination: oracle.PhraseAfter("to", 1, DefaultDestination,
				oracle.AvoidAfter("from"), oracle.ExceptField("origin")),
			SelectTransport: oracle.Category(Modes...),
		},
		Probability: probability,
	}
}

// Fallback returns the booking fallback.
func Fallback(probability oracle.ProbabilitySource) *oracle.Fallback[Booking] {
	return oracle.NewFallback[Booking](FallbackConfig(probability))
}

// Prompts returns few-shot examples for the LLM oracle.
func Prompts() oracle.Prompts {
	return oracle.Prompts{
		RankExamples:    rankExamples,
		ArgsExamples:    argsExamples,
		SuccessExamples: successExamples,
	}
}

const rankExamples = `CURRENT STATE: {"origin":"","destination":"","transport":"","booking_confirmed":false}
USER REQUEST: I want to go from New York to somewhere colder in Europe.
AVAILABLE TOOLS: [{"name":"set_origin","cost":1},{"name":"set_destination","cost":1}]
OUTPUT: [{"name":"set_origin","p":0.85,"reason":"Origin missing; user mentions New York"},{"name":"set_destination","p":0.40,"reason":"Destination depends on origin first"}]

CURRENT STATE: {"origin":"New York","destination":"","transport":"","booking_confirmed":false}
USER REQUEST: Please plan a trip by train to Boston.
AVAILABLE TOOLS: [{"name":"set_destination","cost":1},{"name":"select_transport","cost":1.2}]
OUTPUT: [{"name":"set_destination","p":0.90,"reason":"Destination missing; Boston specified"},{"name":"select_transport","p":0.35,"reason":"Pick transport after destination"}]

CURRENT STATE: {"origin":"Chicago","destination":"Boston","transport":"","booking_confirmed":false}
USER REQUEST: I prefer something affordable over speed.
AVAILABLE TOOLS: [{"name":"select_transport","cost":1.2},{"name":"confirm_booking","cost":2}]
OUTPUT: [{"name":"select_transport","p":0.88,"reason":"Transport missing; consider cheaper modes"},{"name":"confirm_booking","p":0.10,"reason":"Cannot confirm without transport"}]

CURRENT STATE: {"origin":"Paris","destination":"Berlin","transport":"train","booking_confirmed":false}
USER REQUEST: Finalize my trip.
AVAILABLE TOOLS: [{"name":"confirm_booking","cost":2},{"name":"select_transport","cost":1.2}]
OUTPUT: [{"name":"confirm_booking","p":0.95,"reason":"All fields set; finalize now"},{"name":"select_transport","p":0.05,"reason":"Transport already chosen"}]
`

const argsExamples = `USER REQUEST: I want to go to Boston from New York by train.
TOOL: set_origin
CURRENT STATE: {"origin":"","destination":"","transport":"","booking_confirmed":false}
OUTPUT: [["New York"]]

USER REQUEST: Book a train from New York to Boston.
TOOL: set_destination
CURRENT STATE: {"origin":"New York","destination":"","transport":"","booking_confirmed":false}
OUTPUT: [["Boston"]]

USER REQUEST: Plan a trip from Chicago to Seattle.
TOOL: set_origin
CURRENT STATE: {"origin":"","destination":"","transport":"","booking_confirmed":false}
OUTPUT: [["Chicago"]]
`

const successExamples = `CURRENT STATE: {"origin":"","destination":"","transport":"","booking_confirmed":false}
TOOL: set_origin (cost 1.0)
OUTPUT: 0.20

CURRENT STATE: {"origin":"New York","destination":"Boston","transport":"","booking_confirmed":false}
TOOL: select_transport ["train"] (cost 1.2, inexpensive)
OUTPUT: 0.80

CURRENT STATE: {"origin":"New York","destination":"Boston","transport":"","booking_confirmed":false}
TOOL: select_transport ["flight"] (cost 3.0, pricier than the train)
OUTPUT: 0.55

CURRENT STATE: {"origin":"New York","destination":"Boston","transport":"train","booking_confirmed":false}
TOOL: confirm_booking (cost 2.0)
OUTPUT: 0.95
`
