package notifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const (
	tweetLimit    = 280
	tweetInterval = 2 * time.Second
)

var (
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEscaped = regexp.MustCompile(`\\([*_\-\\])`)
)

// TwitterNotifier posts one tweet per changed race
type TwitterNotifier struct {
	client   *twitter.Client
	interval time.Duration
}

// NewTwitterNotifier creates a new Twitter notifier from OAuth1 credentials
func NewTwitterNotifier(apiKey, apiSecret, accessToken, accessSecret string) (*TwitterNotifier, error) {
	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, errors.New("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return &TwitterNotifier{client: twitter.NewClient(httpClient), interval: tweetInterval}, nil
}

// Notify posts tweets for each changed race. Nothing is posted when nothing changed.
func (n *TwitterNotifier) Notify(ctx context.Context, update *Update) error {
	changed := update.Changed()
	for i, r := range changed {
		if _, _, err := n.client.Statuses.Update(formatTweet(r), nil); err != nil {
			return errors.Wrapf(err, "failed to post tweet for race %q", plain(r.Name))
		}

		// Rate limiting: wait between tweets
		if i < len(changed)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
	}
	return nil
}

// plain strips markdown links and escapes from a table cell
func plain(s string) string {
	s = mdLink.ReplaceAllString(s, "$1")
	return mdEscaped.ReplaceAllString(s, "$1")
}

// formatTweet formats a changed race as a tweet
func formatTweet(r race.Race) string {
	var b strings.Builder
	b.WriteString("🔔 NYRR schedule update\n\n")
	b.WriteString(fmt.Sprintf("🏃 %s\n", plain(r.Name)))
	if r.Date != "" {
		b.WriteString(fmt.Sprintf("📅 %s\n", plain(r.Date)))
	}
	b.WriteString(fmt.Sprintf("🚨 Release: %s\n", plain(r.ReleaseDate)))
	if r.Notes != "" {
		b.WriteString(fmt.Sprintf("📝 %s\n", plain(r.Notes)))
	}
	b.WriteString("\n#NYRR #RunNYC")

	tweet := b.String()
	if utf8.RuneCountInString(tweet) > tweetLimit {
		runes := []rune(tweet)
		tweet = string(runes[:tweetLimit-3]) + "..."
	}
	return tweet
}
