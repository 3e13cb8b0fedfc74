package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `vocabtrainer serves adaptive vocabulary review sessions over SM-2 spaced repetition.

Core concepts (keep this mental model small):
- Session: a bounded run of multiple-choice questions, composed from due reviews, new words, and reinforcement of recently-introduced words.
- Question: a single stem with four shuffled choices; answering it updates the target word's SM-2 schedule.
- Progress: per-word easiness factor, interval, and repetitions; a word archives once its interval clears the configured threshold.
- Buffer: questions are generated ahead of demand in the background; a session can outrun it, in which case the next call reports generation still catching up rather than failing.

Rules of engagement (default workflow):
1) Call start_session to begin; it returns the first question or reports none is ready yet.
2) Call answer_question with the session id, the chosen index, and the response time; it returns the result (correct/incorrect, the archive decision if any) plus either the next question or a completion summary.
3) If session_progress or answer_question reports generation still catching up, wait briefly and retry rather than starting a new session.
4) Call session_progress at any time to check answered/correct counts without advancing the session.
5) Call resume_session to re-fetch an in-progress session's current question after a disconnect.
6) Call finish_session to end a session early and receive its summary.
7) Use chat for a free-form question about a word or cluster; it preempts background question generation for the duration of the reply.

Transport notes:
- HTTP: pass session id via Mcp-Session-Id header.
- Stdio: pass session id via _meta.session_id when supported; otherwise tools accept session_id arguments directly.

Docs (progressive disclosure):
- vocabtrainer://docs/index (what to read when)
- vocabtrainer://docs/srs (the SM-2 schedule and archive rule)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "vocabtrainer://docs/index",
		Name:        "docs_index",
		Title:       "vocabtrainer docs index",
		Description: "Entry point for agent-facing docs: what exists and what to read when.",
		Content: `# vocabtrainer: Agent Docs Index

This server is designed for progressive disclosure: the baseline instructions above cover the happy path. Read further only if you hit an edge case.

## Tools

- start_session, answer_question, session_progress, finish_session, resume_session, chat

## When things aren't ready

- NO_CURRENT_QUESTION from start_session or resume_session means the buffer hasn't produced anything yet; retry after a short delay.
- A Generating flag in session_progress or answer_question's result means the same thing mid-session; the session is not broken, just waiting.

## Further reading

- vocabtrainer://docs/srs for how answers map to the next review date and when a word archives.
`,
	},
	{
		URI:         "vocabtrainer://docs/srs",
		Name:        "docs_srs",
		Title:       "vocabtrainer SM-2 schedule",
		Description: "How answer quality maps to the next review date, and the archive rule.",
		Content: `# SM-2 Schedule

Each answer maps to a quality score 0-5 from correctness and response time, then updates easiness factor, interval, and repetition count per the standard SM-2 formula.

An overdue correct answer (the word's next review date was already in the past) is credited with the extra elapsed days before the new interval is computed, so reviewing late doesn't shorten the next interval relative to reviewing on time.

A word archives out of the active pool once its interval reaches the configured archive threshold on a correct answer; the answer_question result reports this via its archive field, including the reason.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
