package scraper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
	"github.com/pfrederiksen/nyrr-watch/internal/table"
)

const (
	DefaultURL = "https://www.reddit.com/r/RunNYC/comments/1nyv8sr/nyrr_91_in_2026_faqs_megathread/"
	UserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	Timeout    = 30 * time.Second

	// maxBody caps how much of a response is read
	maxBody = 8 << 20
)

// Source modes
const (
	ModeReddit = "reddit"
	ModeHTML   = "html"
	ModeText   = "text"
)

// selftextPath points at the post body in a Reddit post listing: [post, comments]
const selftextPath = "0.data.children.0.data.selftext"

// ErrUnexpectedPayload is returned when a Reddit response is not a post listing
var ErrUnexpectedPayload = errors.New("unexpected reddit payload")

// Options configures a Scraper
type Options struct {
	URL     string
	Mode    string
	Header  string // table header signature; empty means table.DefaultHeader
	Timeout time.Duration
}

// Scraper handles fetching the source page and extracting races
type Scraper struct {
	client *http.Client
	url    string
	mode   string
	header string
}

// New creates a new Scraper instance
func New(opts Options) (*Scraper, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Mode == "" {
		opts.Mode = ModeReddit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}

	switch opts.Mode {
	case ModeReddit, ModeHTML, ModeText:
	default:
		return nil, errors.Errorf("unknown source mode: %s", opts.Mode)
	}

	target, err := url.Parse(opts.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing source URL")
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.Errorf("source URL must be absolute: %s", opts.URL)
	}
	if opts.Mode == ModeReddit {
		target = jsonEndpoint(target)
	}

	return &Scraper{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		url:    target.String(),
		mode:   opts.Mode,
		header: opts.Header,
	}, nil
}

// URL returns the address the scraper reads from
func (s *Scraper) URL() string {
	return s.url
}

// jsonEndpoint maps a Reddit post URL to its JSON listing. Only the path gets
// the ".json" suffix; the query string of a shared link is kept.
func jsonEndpoint(u *url.URL) *url.URL {
	out := *u
	out.Path = strings.TrimRight(u.Path, "/")
	if out.Path == "" {
		out.Path = "/"
	}
	out.Path += ".json"
	out.RawPath = ""
	out.Fragment = ""
	return &out
}

// FetchRaces fetches the source text and parses the race table out of it.
// A page without the table yields an empty list.
func (s *Scraper) FetchRaces(ctx context.Context) ([]race.Race, error) {
	text, err := s.FetchText(ctx)
	if err != nil {
		return nil, err
	}
	return table.Extract(text, s.header), nil
}

// FetchText fetches the source and returns the text that should contain the table
func (s *Scraper) FetchText(ctx context.Context) (string, error) {
	body, err := s.get(ctx)
	if err != nil {
		return "", err
	}

	switch s.mode {
	case ModeReddit:
		return selftext(body)
	case ModeHTML:
		return RenderTables(strings.NewReader(string(body)))
	default:
		return string(body), nil
	}
}

func (s *Scraper) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if s.mode == ModeReddit {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	return body, nil
}

// selftext pulls the post body out of a Reddit post listing
func selftext(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.Wrap(ErrUnexpectedPayload, "invalid JSON")
	}

	listing := gjson.ParseBytes(body)
	if !listing.IsArray() || len(listing.Array()) < 2 {
		return "", errors.Wrap(ErrUnexpectedPayload, "not a post listing")
	}

	text := listing.Get(selftextPath)
	if !text.Exists() {
		return "", errors.Wrap(ErrUnexpectedPayload, "post has no selftext")
	}
	return text.String(), nil
}
