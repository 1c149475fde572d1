package telegram

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const (
	// DefaultLimit keeps payloads below Telegram's 4096 character cap
	DefaultLimit = 4000
	// MinLimit leaves room for the longest header and the fixed markup of one
	// race block. Smaller limits are raised to it.
	MinLimit     = 512
	DefaultTitle = "NYRR UPDATE"

	timeLayout = "January 02, 2006 at 03:04 PM"
	noChanges  = "✅ No changes detected"
)

// Options controls message rendering
type Options struct {
	Limit    int            // character budget per payload, in runes; at least MinLimit
	Title    string         // header label
	Location *time.Location // zone for the capture time
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit < MinLimit {
		o.Limit = MinLimit
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape makes cell text safe for HTML parse mode. Markdown is left alone.
func escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Messages yields every payload of one notification in order:
// header, listing payload(s), change payload(s).
func Messages(at time.Time, races, changed []race.Race, opts Options) iter.Seq[string] {
	opts = opts.withDefaults()
	return func(yield func(string) bool) {
		if !yield(FormatHeader(at, opts)) {
			return
		}
		if !listing(races, opts)(yield) {
			return
		}
		changes(changed, opts)(yield)
	}
}

// FormatHeader renders the banner with the capture time
func FormatHeader(at time.Time, opts Options) string {
	opts = opts.withDefaults()
	bar := "══════════════"
	var msg strings.Builder
	msg.WriteString(strings.Repeat(bar+"\n", 3))
	msg.WriteString(fmt.Sprintf("<b>📊 %s</b>\n", escape(opts.Title)))
	msg.WriteString(fmt.Sprintf("<b>%s</b>\n", at.In(opts.Location).Format(timeLayout)))
	msg.WriteString(strings.TrimSuffix(strings.Repeat(bar+"\n", 3), "\n"))
	return msg.String()
}

// FormatListing renders all current races. It always returns at least one payload.
func FormatListing(races []race.Race, opts Options) []string {
	return slices.Collect(seq(listing(races, opts.withDefaults())))
}

// FormatChanges renders the changed races, or a single "no changes" payload
func FormatChanges(changed []race.Race, opts Options) []string {
	return slices.Collect(seq(changes(changed, opts.withDefaults())))
}

// emitter pushes payloads to yield and reports whether the consumer wants more
type emitter func(yield func(string) bool) bool

func seq(e emitter) iter.Seq[string] {
	return func(yield func(string) bool) { e(yield) }
}

func listing(races []race.Race, opts Options) emitter {
	first := "━━━━━━━━━━━━━━━━━━\n<b>All Current Races:</b>\n\n"
	cont := func(n int) string {
		return fmt.Sprintf("<b>All Current Races (continued %d):</b>\n\n", n)
	}
	render := func(r race.Race) string {
		return fmt.Sprintf("<b>%s</b>\nDate: %s\nRelease Date: %s\n\n",
			escape(r.Name), escape(r.Date), escape(r.ReleaseDate))
	}
	return batch(first, cont, races, render, opts.Limit)
}

func changes(changed []race.Race, opts Options) emitter {
	if len(changed) == 0 {
		return func(yield func(string) bool) bool { return yield(noChanges) }
	}

	siren := strings.Repeat("🚨", 9)
	first := siren + "\n<b>🔔 NYRR RACE SCHEDULE UPDATED! 🔔</b>\n" + siren + "\n\n<b>CHANGED RACES:</b>\n\n"
	cont := func(n int) string {
		return fmt.Sprintf("🔔 <b>Changed races (continued %d):</b>\n\n", n)
	}
	render := func(r race.Race) string {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(r.Name)))
		b.WriteString(fmt.Sprintf("📅 <b>Date:</b> %s\n", escape(r.Date)))
		b.WriteString(fmt.Sprintf("🚨 <b><u>RELEASE DATE: %s</u></b>", escape(r.ReleaseDate)))
		if r.Notes != "" {
			b.WriteString(fmt.Sprintf("\n📝 %s", escape(r.Notes)))
		}
		b.WriteString("\n\n")
		return b.String()
	}
	return batch(first, cont, changed, render, opts.Limit)
}

// batch packs rendered races into payloads of at most limit runes. A payload
// is closed when the next block would overflow it and the next one opens with
// cont(n), counting from 1. A block that does not fit even under a fresh
// header has its longest cells cut until it does.
func batch(first string, cont func(n int) string, races []race.Race, render func(race.Race) string, limit int) emitter {
	return func(yield func(string) bool) bool {
		n := 0
		cur := first
		size := utf8.RuneCountInString(cur)
		filled := false

		for _, r := range races {
			b := render(r)
			bs := utf8.RuneCountInString(b)
			if filled && size+bs > limit {
				if !yield(strings.TrimRight(cur, "\n")) {
					return false
				}
				n++
				cur = cont(n)
				size = utf8.RuneCountInString(cur)
				filled = false
			}
			if size+bs > limit {
				b = shrink(r, render, limit-size)
				bs = utf8.RuneCountInString(b)
			}
			cur += b
			size += bs
			filled = true
		}
		return yield(strings.TrimRight(cur, "\n"))
	}
}

// ellipsis marks a cell cut to fit the budget
const ellipsis = "…"

// shrink renders r within budget runes by cutting its longest cell to the
// longest prefix that fits, repeating with the next cell when even an empty
// one does not. Cells are cut before escaping so markup and entities stay
// intact.
func shrink(r race.Race, render func(race.Race) string, budget int) string {
	for {
		b := render(r)
		if utf8.RuneCountInString(b) <= budget {
			return b
		}

		cells := []*string{&r.Name, &r.Date, &r.ReleaseDate, &r.Notes}
		longest := cells[0]
		for _, c := range cells[1:] {
			if utf8.RuneCountInString(*c) > utf8.RuneCountInString(*longest) {
				longest = c
			}
		}
		if *longest == "" {
			// Nothing left to cut; the fixed markup alone exceeds the budget.
			return b
		}

		runes := []rune(*longest)
		tooLong := func(k int) bool {
			*longest = string(runes[:k]) + ellipsis
			return utf8.RuneCountInString(render(r)) > budget
		}
		if k := sort.Search(len(runes), tooLong); k > 0 {
			*longest = string(runes[:k-1]) + ellipsis
		} else {
			*longest = ""
		}
	}
}
