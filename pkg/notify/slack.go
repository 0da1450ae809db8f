package notify

import (
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// SlackAttachments renders one attachment per pool.
type SlackAttachments struct {
	chains *chains.Registry
}

func (f *SlackAttachments) Name() string { return "slack" }

func (f *SlackAttachments) Payload(batch []model.Pool, at time.Time) any {
	attachments := make([]slackAttachment, 0, len(batch))
	for _, p := range batch {
		chain := string(p.ChainID)
		attachments = append(attachments, slackAttachment{
			Color:     "#36a64f",
			Title:     label(p),
			TitleLink: f.chains.PoolURL(chain, p.Address),
			Fields: []slackField{
				{Title: "Exchange", Value: p.Exchange, Short: true},
				{Title: "Chain", Value: f.chains.Name(chain), Short: true},
				{Title: "APR", Value: percent(p.APR), Short: true},
				{Title: "Fee", Value: money(p.EarnFee), Short: true},
				{Title: "Volume", Value: money(p.Volume), Short: true},
				{Title: "TVL", Value: money(p.TVL), Short: true},
				{Title: "Address", Value: p.Address, Short: false},
			},
			Footer: title,
			Ts:     at.Unix(),
		})
	}
	return slackPayload{Text: headline(batch), Attachments: attachments}
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	TitleLink string       `json:"title_link,omitempty"`
	Fields    []slackField `json:"fields"`
	Footer    string       `json:"footer"`
	Ts        int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
