package telegram

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/cmdbot/internal/bot"
	"github.com/iamwavecut/cmdbot/internal/infra"
	"github.com/iamwavecut/cmdbot/internal/message"
)

const (
	maxImageSize  = 20 << 20
	eventBuffer   = 100
	maxPollPanics = 5
)

// Client is the part of the Bot API the adapter uses. *api.BotAPI implements it.
type Client interface {
	Send(c api.Chattable) (api.Message, error)
	GetUpdates(config api.UpdateConfig) ([]api.Update, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Adapter connects the matcher framework to Telegram through long polling.
type Adapter struct {
	client      Client
	username    string
	httpClient  *http.Client
	pollTimeout int
	retryDelay  time.Duration

	events chan *bot.Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Adapter)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithPollTimeout sets the long polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(a *Adapter) { a.pollTimeout = seconds }
}

func WithRetryDelay(d time.Duration) Option {
	return func(a *Adapter) { a.retryDelay = d }
}

func New(botAPI *api.BotAPI, opts ...Option) *Adapter {
	return NewWithClient(botAPI, botAPI.Self.UserName, opts...)
}

func NewWithClient(client Client, username string, opts ...Option) *Adapter {
	a := &Adapter{
		client:      client,
		username:    username,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		pollTimeout: 60,
		retryDelay:  3 * time.Second,
		events:      make(chan *bot.Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Platform() string { return Platform }

// Events delivers converted updates. It is closed after Stop.
func (a *Adapter) Events() <-chan *bot.Event { return a.events }

func (a *Adapter) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))
	cfg := api.NewUpdate(0)
	cfg.Timeout = a.pollTimeout

	updates, errs := a.getUpdatesChans(ctx, cfg)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(a.events)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if ok && !errors.Is(err, context.Canceled) {
					a.getLogEntry().WithError(err).Error("get updates failed")
				}
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := ToEvent(&u, a.username)
				if !ok {
					continue
				}
				select {
				case a.events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	if a.cancel == nil {
		return nil
	}
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getUpdatesChans polls until ctx is done. Transient errors are retried after
// retryDelay, a panicking poll is restarted up to maxPollPanics times.
func (a *Adapter) getUpdatesChans(ctx context.Context, cfg api.UpdateConfig) (<-chan api.Update, <-chan error) {
	ch := make(chan api.Update, eventBuffer)
	chErr := make(chan error, 1)

	a.wg.Add(1)
	go infra.GoRecoverable(maxPollPanics, "telegram poll", func() {
		chErr <- a.poll(ctx, &cfg, ch)
		close(ch)
		close(chErr)
		a.wg.Done()
	})
	return ch, chErr
}

func (a *Adapter) poll(ctx context.Context, cfg *api.UpdateConfig, ch chan<- api.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := a.client.GetUpdates(*cfg)
		if err != nil {
			a.getLogEntry().WithError(err).Warn("get updates, retrying")
			select {
			case <-time.After(a.retryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, update := range updates {
			if update.UpdateID < cfg.Offset {
				continue
			}
			cfg.Offset = update.UpdateID + 1
			select {
			case ch <- update:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Send exports msg: text and mentions become the text or caption, images are
// sent as photos and a reply segment sets the replied message.
func (a *Adapter) Send(ctx context.Context, chatID int64, msg message.Message) error {
	var (
		text    strings.Builder
		photos  []api.RequestFileData
		replyTo int
	)
	for _, seg := range msg {
		switch s := seg.(type) {
		case message.Text:
			text.WriteString(s.Text)
		case message.At:
			text.WriteString(s.String())
		case message.Image:
			if file, ok := imageFile(s); ok {
				photos = append(photos, file)
			}
		case message.Reply:
			replyTo, _ = strconv.Atoi(s.ID)
		default:
			text.WriteString("[" + seg.Type() + "]")
		}
	}

	if len(photos) == 0 {
		if strings.TrimSpace(text.String()) == "" {
			a.getLogEntry().WithField("chat_id", chatID).Debug("skipping message without text or photos")
			return nil
		}
		cfg := api.NewMessage(chatID, text.String())
		cfg.ReplyParameters.MessageID = replyTo
		return a.send(ctx, cfg)
	}
	for i, file := range photos {
		cfg := api.NewPhoto(chatID, file)
		if i == 0 {
			cfg.Caption = text.String()
			cfg.ReplyParameters.MessageID = replyTo
		}
		if err := a.send(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, c api.Chattable) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, err := a.client.Send(c); err != nil {
		return errors.WithMessage(err, "cant send")
	}
	return nil
}

func imageFile(img message.Image) (api.RequestFileData, bool) {
	switch {
	case len(img.Raw) > 0:
		return api.FileBytes{Name: "image", Bytes: img.Raw}, true
	case img.ID != "":
		return api.FileID(img.ID), true
	case img.URL != "":
		return api.FileURL(img.URL), true
	}
	return nil, false
}

// FetchImage returns the raw image, downloading it by URL or Telegram file id.
func (a *Adapter) FetchImage(ctx context.Context, img message.Image) ([]byte, error) {
	if len(img.Raw) > 0 {
		return img.Raw, nil
	}
	url := img.URL
	if url == "" {
		if img.ID == "" {
			return nil, errors.New("image has no source")
		}
		var err error
		if url, err = a.client.GetFileDirectURL(img.ID); err != nil {
			return nil, errors.WithMessage(err, "get file url")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download image")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if len(data) > maxImageSize {
		return nil, errors.New("image too large")
	}
	return data, nil
}

func (a *Adapter) getLogEntry() *log.Entry {
	return log.WithField("object", "TelegramAdapter")
}
