package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// LarkCard renders an interactive message card.
type LarkCard struct {
	chains *chains.Registry
}

func (f *LarkCard) Name() string { return "lark" }

// CheckResponse reports a non-zero code in a Lark or Feishu reply. Bot
// webhooks answer 200 even for signature and keyword failures.
func (f *LarkCard) CheckResponse(body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var reply struct {
		Code          *int   `json:"code"`
		Msg           string `json:"msg"`
		StatusCode    *int   `json:"StatusCode"`
		StatusMessage string `json:"StatusMessage"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil
	}
	switch {
	case reply.Code != nil && *reply.Code != 0:
		return fmt.Errorf("lark code %d: %s", *reply.Code, reply.Msg)
	case reply.StatusCode != nil && *reply.StatusCode != 0:
		return fmt.Errorf("lark code %d: %s", *reply.StatusCode, reply.StatusMessage)
	}
	return nil
}

func (f *LarkCard) Payload(batch []model.Pool, at time.Time) any {
	elements := make([]larkElement, 0, 2*len(batch)+1)
	for i, p := range batch {
		if i > 0 {
			elements = append(elements, larkElement{Tag: "hr"})
		}
		elements = append(elements, larkElement{
			Tag:  "div",
			Text: &larkText{Tag: "lark_md", Content: f.describe(p)},
		})
	}
	elements = append(elements, larkElement{
		Tag: "note",
		Elements: []larkText{
			{Tag: "plain_text", Content: at.UTC().Format("2006-01-02 15:04:05 UTC")},
		},
	})

	return larkPayload{
		MsgType: "interactive",
		Card: larkCard{
			Config: larkConfig{WideScreenMode: true},
			Header: larkHeader{
				Template: "green",
				Title:    larkText{Tag: "plain_text", Content: headline(batch)},
			},
			Elements: elements,
		},
	}
}

func (f *LarkCard) describe(p model.Pool) string {
	chain := string(p.ChainID)
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** · %s · %s\n", label(p), p.Exchange, f.chains.Name(chain))
	fmt.Fprintf(&b, "APR: %s  Fee: %s  Volume: %s\n", percent(p.APR), money(p.EarnFee), money(p.Volume))
	fmt.Fprintf(&b, "TVL: %s  Liquidity: %s\n", money(p.TVL), money(p.Liquidity))
	if link := f.chains.PoolURL(chain, p.Address); link != "" {
		fmt.Fprintf(&b, "[%s](%s)", p.Address, link)
	} else {
		b.WriteString(p.Address)
	}
	return b.String()
}

type larkPayload struct {
	MsgType string   `json:"msg_type"`
	Card    larkCard `json:"card"`
}

type larkCard struct {
	Config   larkConfig    `json:"config"`
	Header   larkHeader    `json:"header"`
	Elements []larkElement `json:"elements"`
}

type larkConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type larkHeader struct {
	Template string   `json:"template"`
	Title    larkText `json:"title"`
}

type larkElement struct {
	Tag      string     `json:"tag"`
	Text     *larkText  `json:"text,omitempty"`
	Elements []larkText `json:"elements,omitempty"`
}

type larkText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}
