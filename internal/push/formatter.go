package push

import (
	"fmt"
	"time"
)

const (
	colorJoin    = 0x5865F2
	colorStart   = 0x3BA55D
	colorCall    = 0x5865F2
	colorWin     = 0x57F287
	colorVoid    = 0xFEE75C
	shortIDLimit = 10
	defaultFoot  = "bingo-live push"
)

func FormatNotice(n Notice) (FormattedMessage, bool) {
	gameShort := shortID(fallback(n.GameID, "unknown"), shortIDLimit)
	fields := make([]MessageField, 0, 6)
	base := FormattedMessage{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    defaultFoot,
	}

	switch n.EventType {
	case "player_joined":
		base.Title = fmt.Sprintf("Player Joined · G:%s", gameShort)
		base.Content = fmt.Sprintf("players=%d", n.PlayerCount)
		base.Description = fmt.Sprintf("A player joined; %d seated.", n.PlayerCount)
		base.Color = colorJoin
		fields = append(fields, MessageField{Name: "Players", Value: fmt.Sprintf("%d", n.PlayerCount), Inline: true})
	case "game_started":
		base.Title = fmt.Sprintf("Game Started · G:%s", gameShort)
		base.Content = "number calling started"
		base.Description = "Minimum players reached; number calling started."
		base.Color = colorStart
	case "number_called":
		base.Title = fmt.Sprintf("Number Called · G:%s", gameShort)
		base.Content = fmt.Sprintf("%s (%d called)", n.Label, n.CalledCount)
		base.Description = fmt.Sprintf("Called %s.", n.Label)
		base.Color = colorCall
		fields = append(fields,
			MessageField{Name: "Call", Value: fallback(n.Label, "-"), Inline: true},
			MessageField{Name: "Drawn", Value: fmt.Sprintf("%d/75", n.CalledCount), Inline: true},
		)
	case "game_won":
		base.Title = fmt.Sprintf("Bingo! · G:%s", gameShort)
		base.Content = fmt.Sprintf("winner %s takes %s", shortID(n.WinnerID, shortIDLimit), centsText(n.PrizeCents))
		base.Description = fmt.Sprintf("Winning card called; prize pool %s paid out.", centsText(n.PrizeCents))
		base.Color = colorWin
		fields = append(fields,
			MessageField{Name: "Winner", Value: fallback(n.WinnerID, "-"), Inline: true},
			MessageField{Name: "Prize", Value: centsText(n.PrizeCents), Inline: true},
		)
	case "game_void":
		base.Title = fmt.Sprintf("Game Voided · G:%s", gameShort)
		base.Content = "numbers exhausted, stakes refunded"
		base.Description = fmt.Sprintf("All 75 numbers called with no winner; %s refunded per player.", centsText(n.RefundCents))
		base.Color = colorVoid
		fields = append(fields, MessageField{Name: "Refund", Value: centsText(n.RefundCents), Inline: true})
	default:
		return FormattedMessage{}, false
	}

	base.Fields = fields
	return base, true
}

func centsText(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func shortID(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max]
}

func fallback(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
