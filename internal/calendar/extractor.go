package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// Completer is the language-model dependency; satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const extractPrompt = `以下のメンション内容を解析し、カレンダーイベント登録用のJSONを生成してください。

JSON構造
{
  "title": （イベントタイトル）,
  "start": （開始日時）,
  "end": （終了日時）,
  "location": （場所）,
  "confidence": （解析の確信度、0から1の数値）
}

- 日時は ISO 8601 形式（オフセット付き）
- ユーザーのタイムゾーンは Asia/Tokyo
- 解析できない項目はnull
- confidence には解析結果にどれだけ自信があるかを 0〜1 で入れてください

現在の日時は %s です。
メンションに「明日」などの相対的な日付が含まれている場合は、この現在時刻を基準に解釈してください。
イベントの内容をもとにある程度の開始時間・終了時間を設定してください。前後に移動時間も含みます。

メンション内容:
%s

条件
- 応答は有効なJSONオブジェクトのみ
- 説明や追加のテキストは含めないでください。`

// LLMExtractor asks a chat model for a structured extraction.
type LLMExtractor struct {
	model Completer
	loc   *time.Location
}

func NewLLMExtractor(model Completer) *LLMExtractor {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return &LLMExtractor{model: model, loc: loc}
}

type extractedJSON struct {
	Title      string  `json:"title"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Location   string  `json:"location"`
	Confidence float64 `json:"confidence"`
}

func (e *LLMExtractor) Extract(ctx context.Context, text string, ref time.Time) (*ParseResult, error) {
	prompt := fmt.Sprintf(extractPrompt, ref.In(e.loc).Format(time.RFC3339), text)

	raw, err := e.model.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// models wrap JSON in fences or drop quotes; repair before decoding
	repaired, err := jsonrepair.JSONRepair(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("repair model output: %w", err)
	}
	var parsed extractedJSON
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	start, err := time.Parse(time.RFC3339, parsed.Start)
	if err != nil {
		return nil, fmt.Errorf("bad start time %q: %w", parsed.Start, err)
	}
	end, err := time.Parse(time.RFC3339, parsed.End)
	if err != nil {
		return nil, fmt.Errorf("bad end time %q: %w", parsed.End, err)
	}

	return &ParseResult{
		Title:      parsed.Title,
		Start:      start,
		End:        end,
		Location:   parsed.Location,
		Confidence: parsed.Confidence,
	}, nil
}
