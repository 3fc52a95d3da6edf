package scouts

import (
	"fmt"

	"recon/internal/selection"
)

// Builtins returns the scout configurations that ship with the dispatcher.
func Builtins() []*Config {
	return []*Config{
		finderScout(),
		oracleScout(),
		researcherScout(),
	}
}

// finderScout locates files and symbols in the workspace. It favors a fast
// model since the work is mostly mechanical search.
func finderScout() *Config {
	return &Config{
		Name:        "finder",
		MaxTurns:    6,
		DefaultTier: selection.TierFast,
		BuildSystemPrompt: func() string {
			return `You are a file-finding scout working inside a source repository.
Locate the files, symbols, or definitions the user asks about using the
search, ls, and view tools. Be exhaustive but terse: report paths with
line numbers and a one-line note per hit. Do not speculate about files
you have not opened. You have a limited number of turns, so batch your
searches and answer as soon as you have enough evidence.`
		},
		BuildUserPrompt: func(params Params) string {
			return fmt.Sprintf("Find the following in this repository and report file paths with line numbers:\n\n%s", params.Query)
		},
	}
}

// oracleScout answers design and behavior questions about the code. Analysis
// work benefits from a capable model.
func oracleScout() *Config {
	return &Config{
		Name:        "oracle",
		MaxTurns:    10,
		DefaultTier: selection.TierCapable,
		BuildSystemPrompt: func() string {
			return `You are a code-analysis scout. Answer questions about how the code
in this repository behaves: control flow, invariants, edge cases, and the
reasoning behind the structure you observe. Ground every claim in a file
you actually read, citing path and line. If the evidence is ambiguous,
say so instead of guessing. Answer within your turn budget.`
		},
		BuildUserPrompt: func(params Params) string {
			return fmt.Sprintf("Analyze this repository and answer:\n\n%s", params.Query)
		},
	}
}

// researcherScout digs through docs, configs, and histories for background
// material the caller needs.
func researcherScout() *Config {
	return &Config{
		Name:        "researcher",
		MaxTurns:    8,
		DefaultTier: selection.TierCapable,
		BuildSystemPrompt: func() string {
			return `You are a research scout. Gather background material relevant to the
user's question from this repository: README files, docs, configuration,
commit history (via the run tool's read-only git commands), and code
comments. Synthesize what you find into a short, sourced briefing. Prefer
primary sources in the repository over inference.`
		},
		BuildUserPrompt: func(params Params) string {
			return fmt.Sprintf("Research the following and produce a short sourced briefing:\n\n%s", params.Query)
		},
	}
}
