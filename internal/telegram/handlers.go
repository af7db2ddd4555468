package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/finance"
	"stockTrendPCA/internal/pca"
	"stockTrendPCA/internal/storage"
)

var (
	// /pca [S1 S2 ...] [window]
	rePCA = regexp.MustCompile(`^/pca(?:@[\w_]+)?(?:\s+(.+))?$`)
	// /basket
	reBasket = regexp.MustCompile(`^/basket(?:@[\w_]+)?$`)
	// /history [n]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /usage [days]
	reUsage = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /help
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is the part of the bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
	Basket() config.Basket
}

type History interface {
	RecentAnalyses(ctx context.Context, limit int) ([]storage.AnalysisRecord, error)
	UsageBySource(ctx context.Context, since time.Time) (map[string]*storage.UsageStats, error)
}

type Narrator interface {
	Narrate(ctx context.Context, window string, symbols []string, loadings []float64, s pca.Summary) (string, error)
}

type Handlers struct {
	api      Sender
	analyzer Analyzer
	history  History
	narrator Narrator
	log      zerolog.Logger
}

// NewHandlers wires the command handlers. history and narrator may be nil.
func NewHandlers(api Sender, analyzer Analyzer, history History, narrator Narrator, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		analyzer: analyzer,
		history:  history,
		narrator: narrator,
		log:      log.With().Str("component", "telegram").Logger(),
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	txt := strings.TrimSpace(m.Text)
	switch {
	case rePCA.MatchString(txt):
		g := rePCA.FindStringSubmatch(txt)
		syms, window, err := parsePCAArgs(g[1])
		if err != nil {
			h.reply(m.Chat.ID, err.Error())
			return
		}
		h.handlePCA(m.Chat.ID, syms, window)

	case reBasket.MatchString(txt):
		h.reply(m.Chat.ID, formatBasket(h.analyzer.Basket()))

	case reHistory.MatchString(txt):
		n := 10
		if g := reHistory.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			n, _ = strconv.Atoi(g[1])
			if n < 1 {
				n = 1
			}
			if n > 50 {
				n = 50
			}
		}
		h.handleHistory(m.Chat.ID, n)

	case reUsage.MatchString(txt):
		days := 7
		if g := reUsage.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			days, _ = strconv.Atoi(g[1])
			if days < 1 {
				days = 1
			}
			if days > 90 {
				days = 90
			}
		}
		h.handleUsage(m.Chat.ID, days)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handlePCA(chatID int64, syms []string, window string) {
	if window == "" {
		window = finance.DefaultWindow
	}
	label := "default basket"
	if len(syms) > 0 {
		label = strings.Join(syms, ", ")
	}
	h.reply(chatID, fmt.Sprintf("Running PCA on %s over %s…", label, window))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	rep, err := h.analyzer.Analyze(ctx, analysis.Request{
		Symbols: syms,
		Window:  window,
		Source:  analysis.SourceTelegram,
	})
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("pca command failed")
		h.reply(chatID, "PCA failed: "+userMessage(err))
		return
	}

	name := strings.Join(rep.Result.Symbols, "_")
	if len(rep.TrendChart) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name + "_trend.png", Bytes: rep.TrendChart})
		photo.Caption = formatSummary(rep)
		h.send(photo)
	} else {
		h.reply(chatID, formatSummary(rep))
	}
	if len(rep.ReturnsChart) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name + "_returns.png", Bytes: rep.ReturnsChart})
		photo.Caption = "Cumulative growth • " + rep.Range.String()
		h.send(photo)
	}

	if h.narrator == nil {
		return
	}
	nctx, ncancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer ncancel()
	text, err := h.narrator.Narrate(nctx, rep.Range.String(), rep.Result.Symbols, rep.Result.Eigen.Vectors[0], rep.Result.Summary)
	if err != nil {
		h.log.Warn().Err(err).Msg("commentary failed")
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleHistory(chatID int64, n int) {
	if h.history == nil {
		h.reply(chatID, "History is not enabled.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recs, err := h.history.RecentAnalyses(ctx, n)
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	h.reply(chatID, formatHistory(recs))
}

func (h *Handlers) handleUsage(chatID int64, days int) {
	if h.history == nil {
		h.reply(chatID, "History is not enabled.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stats, err := h.history.UsageBySource(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	if len(stats) > 0 {
		if img, err := finance.MakeUsageChart(stats, days); err == nil {
			h.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "usage.png", Bytes: img}))
		} else {
			h.log.Warn().Err(err).Msg("usage chart failed")
		}
	}
	h.reply(chatID, finance.FormatUsageStatsText(stats, days))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /pca [S1 S2 ...] [window] - PCA of daily returns; no symbols uses the default basket\n" +
		"- /basket - List the default basket\n" +
		"- /history [n] - Recent analyses (default 10, max 50)\n" +
		"- /usage [days] - Analyses by source (default 7, max 90)\n" +
		"\nWindows: 30d, 6w, 3m, 1y (default " + finance.DefaultWindow + "). Dates are exchange-local."
	h.reply(chatID, help)
}

// userMessage keeps replies short for the errors a user can act on.
func userMessage(err error) string {
	switch {
	case errors.Is(err, finance.ErrProviderUnavailable):
		return "market data is unavailable right now, try again later"
	case errors.Is(err, finance.ErrSymbolNotFound):
		return "unknown symbol (" + err.Error() + ")"
	case errors.Is(err, pca.ErrInsufficientData):
		return "not enough overlapping trading days; try a longer window"
	default:
		return err.Error()
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn().Err(err).Msg("telegram send failed")
	}
}
