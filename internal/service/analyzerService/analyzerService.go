package analyzerService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/repository"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	RegUser(ctx context.Context, chatID int64) (userID int64, err error)
	GetUserID(ctx context.Context, chatID int64) (userID int64, err error)
	InsertTransaction(ctx context.Context, tx model.Transaction) error
	InsertTransactions(ctx context.Context, txs []model.Transaction) error
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (model.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
	ListTransactionsPage(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, tx model.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error
	DeleteAllTransactions(ctx context.Context, userID int64) (int64, error)
	ListOwnerIDs(ctx context.Context) ([]int64, error)
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SetQuote(ctx context.Context, quote model.Quote) error
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
}

type Importer interface {
	Parse(ctx context.Context, filename string, r io.Reader, ownerID int64) ([]model.Transaction, model.ImportResult, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report analytics.Report) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type AnalyzerService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	quoteProvider   QuoteProvider
	importer        Importer
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
	thresholds      analytics.CapThresholds
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	quoteProvider QuoteProvider,
	importer Importer,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
) *AnalyzerService {
	return &AnalyzerService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		quoteProvider:   quoteProvider,
		importer:        importer,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		thresholds: analytics.CapThresholds{
			Large:       decimal.NewFromFloat(cfg.MarketCap.LargeThreshold),
			Mid:         decimal.NewFromFloat(cfg.MarketCap.MidThreshold),
			Unit:        decimal.NewFromFloat(cfg.MarketCap.Unit),
			SanityBound: decimal.NewFromFloat(cfg.MarketCap.SanityBound),
		},
	}
}

func (s *AnalyzerService) RegUser(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AnalyzerService.RegUser"

	slog.Debug("RegUser start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("RegUser finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	_, err := s.repo.RegUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil
		}
		slog.Error("got error from repo.RegUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// userID resolves the owner of a chat, registering the chat on first use.
func (s *AnalyzerService) userID(ctx context.Context, chatID int64) (int64, error) {
	userID, err := s.repo.GetUserID(ctx, chatID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}

	userID, err = s.repo.RegUser(ctx, chatID)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return s.repo.GetUserID(ctx, chatID)
	}
	return userID, err
}

func (s *AnalyzerService) transactions(ctx context.Context, chatID int64) ([]model.Transaction, error) {
	userID, err := s.userID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, userID)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
}
