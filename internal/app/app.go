package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anomdash/anomdash/internal/config"
	"github.com/anomdash/anomdash/internal/domain"
	"github.com/anomdash/anomdash/internal/ui/styles"
)

type View int

const (
	ViewCharts View = iota
	ViewSamples
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg  *config.Config
	repo domain.AnalyticsRepo
	log  *zap.Logger

	view View

	// fetch state
	healthy  bool
	loading  bool
	fetchSeq int // latest issued batch; older results are discarded
	err      error

	// last good chart state; survives failed fetches
	snap domain.Snapshot
	// table rows; cleared on any failed fetch, unlike the charts
	samples []domain.SampleRow

	table    table.Model
	infoOpen bool

	width, height int
}

func New(cfg *config.Config, repo domain.AnalyticsRepo, logger *zap.Logger) Model {
	ctx, cancel := context.WithCancel(context.Background())

	t := table.New()
	t.SetHeight(12)
	t.SetWidth(100)

	return Model{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		repo:     repo,
		log:      logger.Named("app"),
		view:     ViewCharts,
		table:    t,
		fetchSeq: 1, // Init issues batch 1
		loading:  true,
	}
}

type fetchedMsg struct {
	seq  int
	snap *domain.Snapshot
}

type fetchFailedMsg struct {
	seq int
	err error
}

type tickMsg struct{}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetch(m.fetchSeq)}
	if m.cfg.Refresh > 0 {
		cmds = append(cmds, tea.Tick(m.cfg.Refresh, func(time.Time) tea.Msg { return tickMsg{} }))
	}
	return tea.Batch(cmds...)
}

// fetch runs one FetchAll batch tagged with its sequence number.
func (m Model) fetch(seq int) tea.Cmd {
	return func() tea.Msg {
		snap, err := FetchAll(m.ctx, m.repo, m.cfg)
		if err != nil {
			return fetchFailedMsg{seq: seq, err: err}
		}
		return fetchedMsg{seq: seq, snap: snap}
	}
}

// FetchAll probes the backend and, if it is live, fans out the full batch
// of typed reads. The join is all-or-nothing: one failure fails the batch
// and no partial snapshot is produced.
func FetchAll(ctx context.Context, repo domain.AnalyticsRepo, cfg *config.Config) (*domain.Snapshot, error) {
	status, err := repo.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if !domain.IsLive(status) {
		return nil, fmt.Errorf("backend not live: status %q", status)
	}

	snap := &domain.Snapshot{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Cards, err = repo.Overview(ctx)
		return
	})
	g.Go(func() (err error) {
		snap.Timeline, err = repo.Timeline(ctx, cfg.Bucket, cfg.TZ)
		return
	})
	g.Go(func() (err error) {
		snap.Severity, err = repo.Severity(ctx)
		return
	})
	g.Go(func() (err error) {
		snap.Distribution, err = repo.Distribution(ctx)
		return
	})
	if cfg.TrendVariant == config.VariantFileTimeline {
		g.Go(func() (err error) {
			snap.FileTimeline, err = repo.FileTimeline(ctx, cfg.Bucket, cfg.TZ)
			return
		})
	} else {
		g.Go(func() (err error) {
			snap.Trend, err = repo.Trend(ctx, cfg.Bucket, cfg.TZ)
			return
		})
		g.Go(func() (err error) {
			snap.TopDst, err = repo.TopDestinations(ctx, cfg.TopN)
			return
		})
	}
	g.Go(func() (err error) {
		snap.Samples, err = repo.Samples(ctx, cfg.SampleN)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

func (m Model) refresh() (Model, tea.Cmd) {
	m.fetchSeq++
	m.loading = true
	return m, m.fetch(m.fetchSeq)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		headerH := lipgloss.Height(styles.Header.Render("x"))
		footerH := lipgloss.Height(styles.Footer.Render("x"))
		base := m.height - headerH - footerH - 2
		if base < 10 {
			base = 10
		}
		if m.infoOpen {
			m.table.SetHeight(int(float64(base) * 0.6))
		} else {
			m.table.SetHeight(base)
		}
		m.table.SetWidth(m.width - 4)
		m.rebuildTable()
		return m, nil

	case fetchedMsg:
		if msg.seq != m.fetchSeq {
			m.log.Debug("discarding stale fetch result", zap.Int("seq", msg.seq))
			return m, nil
		}
		m.healthy = true
		m.loading = false
		m.err = nil
		m.snap = *msg.snap
		m.samples = msg.snap.Samples
		m.rebuildTable()
		m.log.Info("snapshot applied",
			zap.Int("seq", msg.seq),
			zap.Int64("total", m.snap.Cards.Total),
			zap.Int("samples", len(m.samples)))
		return m, nil

	case fetchFailedMsg:
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		m.healthy = false
		m.loading = false
		m.err = msg.err
		// table clears, charts keep showing last-good data
		m.samples = nil
		m.rebuildTable()
		m.log.Error("fetch failed", zap.Int("seq", msg.seq), zap.Error(msg.err))
		return m, nil

	case tickMsg:
		next, cmd := m.refresh()
		return next, tea.Batch(
			cmd,
			tea.Tick(m.cfg.Refresh, func(time.Time) tea.Msg { return tickMsg{} }),
		)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.infoOpen {
				m.infoOpen = false
				return m, nil
			}
			m.cancel()
			return m, tea.Quit

		case "r":
			// repeated presses are allowed; sequence numbers keep them safe
			return m.refresh()

		case "tab":
			if m.view == ViewCharts {
				m.view = ViewSamples
			} else {
				m.view = ViewCharts
			}
			m.infoOpen = false
			return m, nil

		case "i":
			if m.view == ViewSamples {
				m.infoOpen = !m.infoOpen
				return m, func() tea.Msg { return tea.WindowSizeMsg{Width: m.width, Height: m.height} }
			}
			return m, nil

		case "up", "k", "down", "j", "pgup", "pgdn", "home", "end":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	health := styles.Danger.Render("● down")
	if m.healthy {
		health = styles.Good.Render("● live")
	}
	status := ""
	if m.loading {
		status = "  loading…"
	} else if !m.snap.FetchedAt.IsZero() {
		status = "  fetched " + m.snap.FetchedAt.Format("15:04:05")
	}
	head := styles.Header.Render(fmt.Sprintf(
		"anomdash  %s%s  view: %s  (Tab switch, [r] refresh, [q] quit)",
		health, status, map[View]string{ViewCharts: "Charts", ViewSamples: "Samples"}[m.view]))

	var body string
	switch m.view {
	case ViewCharts:
		body = m.renderCharts()
	case ViewSamples:
		body = lipgloss.NewStyle().Padding(0, 1).Render(m.table.View())
		if len(m.samples) == 0 {
			body = m.placeholder("no samples")
		}
		if m.infoOpen {
			body = lipgloss.JoinVertical(lipgloss.Left,
				body,
				styles.Box.Width(m.width-2).Render(m.renderSampleInfo()))
		}
	}

	footer := styles.Footer.Render("↑/↓ move • [Tab] switch view • [r] refresh • [i] sample info • [q] quit")
	if !m.healthy && m.err != nil {
		footer = lipgloss.JoinVertical(lipgloss.Left,
			styles.Danger.Render("  backend unreachable: "+m.err.Error()),
			footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, body, footer)
}

// placeholder is the explicit empty state every pane degrades to.
func (m Model) placeholder(label string) string {
	if m.loading {
		label = "loading…"
	}
	return styles.Faint.Render("  " + label)
}
