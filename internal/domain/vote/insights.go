package vote

import (
	"sort"

	"online-polls/internal/domain/poll"
)

type ChoiceInsight struct {
	ChoiceID   int64   `json:"choiceId"`
	Text       string  `json:"text"`
	VoteCount  int64   `json:"voteCount"`
	Percentage float64 `json:"percentage"`
	Voters     []int64 `json:"voters,omitempty"`
}

type Insights struct {
	PollID      int64           `json:"pollId"`
	Title       string          `json:"title"`
	Question    string          `json:"question"`
	PollType    poll.Type       `json:"pollType"`
	TotalVotes  int64           `json:"totalVotes"`
	TotalVoters int64           `json:"totalVoters"`
	Choices     []ChoiceInsight `json:"choices"`
}

// Aggregate derives per-choice statistics from the ledger of p.
// TotalVotes is the number of selections, so percentages add up to 100 for
// multiple-choice polls too. Choices are ranked by percentage, ties keep poll order.
func Aggregate(p *poll.Poll, ledger []Vote) Insights {
	index := make(map[int64]int, len(p.Choices))
	choices := make([]ChoiceInsight, len(p.Choices))
	for i, c := range p.Choices {
		index[c.ID] = i
		choices[i] = ChoiceInsight{ChoiceID: c.ID, Text: c.Text, Voters: []int64{}}
	}

	var total int64
	for _, v := range ledger {
		for _, id := range v.ChoiceIDs {
			i, ok := index[id]
			if !ok {
				continue
			}
			choices[i].VoteCount++
			choices[i].Voters = append(choices[i].Voters, v.VoterID)
			total++
		}
	}

	if total > 0 {
		for i := range choices {
			choices[i].Percentage = float64(choices[i].VoteCount) * 100 / float64(total)
		}
	}
	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].Percentage > choices[j].Percentage
	})

	return Insights{
		PollID:      p.ID,
		Title:       p.Title,
		Question:    p.Question,
		PollType:    p.PollType,
		TotalVotes:  total,
		TotalVoters: int64(len(ledger)),
		Choices:     choices,
	}
}

func (in Insights) clone() Insights {
	out := in
	out.Choices = make([]ChoiceInsight, len(in.Choices))
	for i, c := range in.Choices {
		c.Voters = append([]int64(nil), c.Voters...)
		out.Choices[i] = c
	}
	return out
}
