package oracle

// Prompts holds the instructions sent for each oracle operation. Domain
// packs supply few-shot examples through Examples.
type Prompts struct {
	Rank    string
	Args    string
	Success string

	RankExamples    string
	ArgsExamples    string
	SuccessExamples string
}

// DefaultPrompts returns domain-neutral instructions.
func DefaultPrompts() Prompts {
	return Prompts{
		Rank: "You rank tools for the next single step of a plan.\n" +
			"Given CURRENT STATE and USER REQUEST, score which tool to execute NEXT.\n" +
			"Output strict JSON only: an array of objects {\"name\": string, \"p\": number, \"reason\": string}.\n" +
			"Rules:\n" +
			"- p is in [0,1]; the values need not sum to 1.\n" +
			"- Consider preconditions, progress toward the goal and rough economic cost.\n" +
			"- Prefer filling the earliest missing field of the state.\n" +
			"- Keep each reason under 20 words. No text outside the JSON.\n",

		Args: "You propose argument tuples for one tool, based on the user request and the current state.\n" +
			"Output strict JSON only: an array of arrays of strings, one inner array per candidate,\n" +
			"each with exactly one string per tool argument. Never propose empty strings.\n",

		Success: "You estimate the probability (0-1) that calling a tool will succeed in the current state.\n" +
			"Balance technical correctness (does the precondition hold, does the effect advance the goal)\n" +
			"against economic cost (the tool's intrinsic cost and any implied expense).\n" +
			"High-cost options get lower probabilities unless clearly justified.\n" +
			"Respond with ONE number in [0, 1]. No words.\n",
	}
}

func (p Prompts) rank() string {
	return withExamples(p.Rank, p.RankExamples)
}

func (p Prompts) args() string {
	return withExamples(p.Args, p.ArgsExamples)
}

func (p Prompts) success() string {
	return withExamples(p.Success, p.SuccessExamples)
}

func withExamples(prompt, examples string) string {
	if examples == "" {
		return prompt
	}
	return prompt + "\nExamples:\n\n" + examples
}
