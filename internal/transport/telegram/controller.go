package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/session"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service/analyzerService"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg = "something went wrong..."
	helpMsg        = `Commands:
/add_order ` + telebotConverter.OrderUsage + `
/orders [page] - order history
/edit_order <id> field=value
/delete_order <id>
/delete_all_orders
/import - upload a CSV or XLSX broker export
/analysis - holdings and profit
/composition - sector and market cap split
/performance - top gainers and losers
/behavior - holding time and win rate
/report - full XLSX report`
)

type AnalyzerService interface {
	RegUser(ctx context.Context, chatID int64) error
	AddTransaction(ctx context.Context, chatID int64, tx model.Transaction) (model.Transaction, error)
	ListTransactions(ctx context.Context, chatID int64, page int) (txs []model.Transaction, hasNext bool, err error)
	UpdateTransaction(ctx context.Context, chatID int64, transactionID uuid.UUID, patch model.TransactionPatch) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, chatID int64, transactionID uuid.UUID) error
	DeleteAllTransactions(ctx context.Context, chatID int64) (int64, error)
	ImportTransactions(ctx context.Context, chatID int64, filename string, r io.Reader) (model.ImportResult, error)
	GetAnalysis(ctx context.Context, chatID int64) (analyzerService.Analysis, error)
	GetComposition(ctx context.Context, chatID int64) (analytics.Composition, error)
	GetPerformance(ctx context.Context, chatID int64) (analytics.Performance, error)
	GetBehavior(ctx context.Context, chatID int64) (analytics.Behavior, error)
	ExportReport(ctx context.Context, chatID int64) (downloadLink string, err error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg             *config.Config
	analyzerService AnalyzerService
	session         Session
	now             func() time.Time
}

func NewController(cfg *config.Config, analyzerService AnalyzerService, session Session) *Controller {
	return &Controller{
		cfg:             cfg,
		analyzerService: analyzerService,
		session:         session,
		now:             time.Now,
	}
}

func sessionKey(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

// errorMessage turns service errors into something the user can act on.
func errorMessage(err error) string {
	var inputErr *model.InputError
	switch {
	case errors.As(err, &inputErr):
		return "❗ " + inputErr.Error()
	case errors.Is(err, service.ErrInvalidInput):
		return "❗ " + strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	case errors.Is(err, service.ErrNotFound):
		return "Order not found"
	case errors.Is(err, service.ErrForbidden):
		return "This order belongs to someone else"
	case errors.Is(err, service.ErrEmptyPortfolio):
		return "No orders yet, add one with /add_order"
	default:
		return internalErrMsg
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.analyzerService.RegUser(ctx, c.Chat().ID)
	return c.Reply("Hello! I track your orders and analyze the portfolio.\n\n" + helpMsg)
}

func (ctrl *Controller) Help(c tele.Context) error {
	return c.Send(helpMsg)
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, sessionKey(c))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, nil
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setState(ctx context.Context, c tele.Context, state model.State) error {
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return err
	}

	chatSession.State = state
	err = ctrl.session.SetSession(ctx, sessionKey(c), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
	}
	return err
}

// AddOrder saves the order given as command arguments, or waits for it in the
// next message when there are none.
func (ctrl *Controller) AddOrder(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	if len(c.Args()) == 0 {
		if err := ctrl.setState(ctx, c, model.ExpectingOrder); err != nil {
			return c.Send(internalErrMsg)
		}
		return c.Send("Send the order as:\n" + telebotConverter.OrderUsage)
	}

	return ctrl.saveOrder(ctx, c, c.Args())
}

func (ctrl *Controller) ProcessOrder(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	if err := ctrl.setState(ctx, c, model.DefaultState); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.saveOrder(ctx, c, strings.Fields(c.Message().Text))
}

func (ctrl *Controller) saveOrder(ctx context.Context, c tele.Context, args []string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	tx, err := telebotConverter.ParseOrder(args, ctrl.now().UTC())
	if err != nil {
		return c.Send(errorMessage(err))
	}

	saved, err := ctrl.analyzerService.AddTransaction(ctx, c.Chat().ID, tx)
	if err != nil {
		slog.Warn("got error from analyzerService.AddTransaction", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send("✅ Saved\n" + telebotConverter.OrderResponse(saved))
}

func (ctrl *Controller) Orders(c tele.Context) error {
	page := 1
	if args := c.Args(); len(args) > 0 {
		if p, err := strconv.Atoi(args[0]); err == nil && p > 0 {
			page = p
		}
	}
	return ctrl.sendOrdersPage(c, page, false)
}

func (ctrl *Controller) OrdersPage(c tele.Context) error {
	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil || page < 1 {
		page = 1
	}
	return ctrl.sendOrdersPage(c, page, true)
}

func (ctrl *Controller) sendOrdersPage(c tele.Context, page int, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	txs, hasNext, err := ctrl.analyzerService.ListTransactions(ctx, c.Chat().ID, page)
	if err != nil {
		slog.Error("got error from analyzerService.ListTransactions", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err == nil {
		chatSession.OrdersPage = page
		_ = ctrl.session.SetSession(ctx, sessionKey(c), chatSession)
	}

	text, markup := telebotConverter.OrdersResponse(txs, page, hasNext)
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func (ctrl *Controller) EditOrder(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	id, patch, err := telebotConverter.ParseEdit(c.Args())
	if err != nil {
		return c.Send(errorMessage(err) + "\nUsage: " + telebotConverter.EditUsage)
	}

	updated, err := ctrl.analyzerService.UpdateTransaction(ctx, c.Chat().ID, id, patch)
	if err != nil {
		slog.Warn("got error from analyzerService.UpdateTransaction", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send("✏️ Updated\n" + telebotConverter.OrderResponse(updated))
}

func (ctrl *Controller) DeleteOrder(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /delete_order <id>")
	}
	return ctrl.deleteOrder(c, args[0])
}

func (ctrl *Controller) DeleteOrderCallback(c tele.Context) error {
	if err := ctrl.deleteOrder(c, c.Callback().Data); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "Deleted"})
}

func (ctrl *Controller) deleteOrder(c tele.Context, rawID string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	id, err := uuid.Parse(rawID)
	if err != nil {
		return c.Send(errorMessage(&model.InputError{Field: "id", Reason: "not a valid order id"}))
	}

	err = ctrl.analyzerService.DeleteTransaction(ctx, c.Chat().ID, id)
	if err != nil {
		slog.Warn("got error from analyzerService.DeleteTransaction", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send("🗑 Order deleted")
}

func (ctrl *Controller) DeleteAllOrders(c tele.Context) error {
	text, markup := telebotConverter.DeleteAllConfirmation()
	return c.Send(text, markup)
}

func (ctrl *Controller) ConfirmDeleteAll(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	deleted, err := ctrl.analyzerService.DeleteAllTransactions(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.DeleteAllTransactions", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Edit(internalErrMsg)
	}

	return c.Edit("🗑 Deleted orders: " + strconv.FormatInt(deleted, 10))
}

func (ctrl *Controller) CancelDeleteAll(c tele.Context) error {
	return c.Edit("Nothing deleted")
}

func (ctrl *Controller) InitImport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	if err := ctrl.setState(ctx, c, model.ExpectingImportFile); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Send a CSV or XLSX export. It needs an exact 'Symbol' column plus type, quantity and price columns.")
}

func (ctrl *Controller) ImportFile(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	if chatSession.State != model.ExpectingImportFile {
		return c.Send("Use /import before sending a file")
	}

	doc := c.Message().Document
	if doc == nil {
		return c.Send("Send the export as a document")
	}
	if ctrl.cfg.Telegram.FileLimitInBytes > 0 && int64(doc.FileSize) > int64(ctrl.cfg.Telegram.FileLimitInBytes) {
		return c.Send("File is too large")
	}

	if err = ctrl.setState(ctx, c, model.DefaultState); err != nil {
		return c.Send(internalErrMsg)
	}

	reader, err := c.Bot().File(&doc.File)
	if err != nil {
		slog.Error("can't download document", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	defer reader.Close()

	result, err := ctrl.analyzerService.ImportTransactions(ctx, c.Chat().ID, doc.FileName, reader)
	if err != nil {
		slog.Warn("got error from analyzerService.ImportTransactions", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send(telebotConverter.ImportResultResponse(result))
}

func (ctrl *Controller) Analysis(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	analysis, err := ctrl.analyzerService.GetAnalysis(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.GetAnalysis", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send(telebotConverter.AnalysisResponse(analysis.Valuation, len(analysis.Orders)))
}

func (ctrl *Controller) Composition(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	composition, err := ctrl.analyzerService.GetComposition(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.GetComposition", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send(telebotConverter.CompositionResponse(composition))
}

func (ctrl *Controller) Performance(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	performance, err := ctrl.analyzerService.GetPerformance(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.GetPerformance", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send(telebotConverter.PerformanceResponse(performance))
}

func (ctrl *Controller) Behavior(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	behavior, err := ctrl.analyzerService.GetBehavior(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.GetBehavior", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send(telebotConverter.BehaviorResponse(behavior))
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	_ = c.Notify(tele.UploadingDocument)

	link, err := ctrl.analyzerService.ExportReport(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from analyzerService.ExportReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errorMessage(err))
	}

	return c.Send("📎 Report: " + link)
}
