package tgbot

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/session"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model/tg/tgCallback.go"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/transport/telegram"
	customMW "github.com/KotFed0t/portfolio_analyzer_bot/internal/transport/telegram/middleware"
	"github.com/KotFed0t/portfolio_analyzer_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session telegram.Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session telegram.Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

// withSession loads the chat session into the telebot context.
func (b *TGBot) withSession(c tele.Context) (model.Session, error) {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		slog.Error("got error from session.GetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return model.Session{}, err
	}

	c.Set("session", chatSession)
	return chatSession, nil
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		chatSession, err := b.withSession(c)
		if err != nil {
			return c.Send("something went wrong...")
		}

		switch chatSession.State {
		case model.ExpectingOrder:
			return b.ctrl.ProcessOrder(c)
		default:
			return b.ctrl.Help(c)
		}
	})

	b.bot.Handle(tele.OnDocument, func(c tele.Context) error {
		if _, err := b.withSession(c); err != nil {
			return c.Send("something went wrong...")
		}
		return b.ctrl.ImportFile(c)
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/help", b.ctrl.Help)

	b.bot.Handle("/add_order", b.ctrl.AddOrder)
	b.bot.Handle("/orders", b.ctrl.Orders)
	b.bot.Handle("/edit_order", b.ctrl.EditOrder)
	b.bot.Handle("/delete_order", b.ctrl.DeleteOrder)
	b.bot.Handle("/delete_all_orders", b.ctrl.DeleteAllOrders)
	b.bot.Handle("/import", b.ctrl.InitImport)

	b.bot.Handle("/analysis", b.ctrl.Analysis)
	b.bot.Handle("/composition", b.ctrl.Composition)
	b.bot.Handle("/performance", b.ctrl.Performance)
	b.bot.Handle("/behavior", b.ctrl.Behavior)
	b.bot.Handle("/report", b.ctrl.Report)

	b.bot.Handle("\f"+tgCallback.OrdersPage, b.ctrl.OrdersPage)
	b.bot.Handle("\f"+tgCallback.DeleteOrder, b.ctrl.DeleteOrderCallback)
	b.bot.Handle("\f"+tgCallback.ConfirmDeleteAll, b.ctrl.ConfirmDeleteAll)
	b.bot.Handle("\f"+tgCallback.CancelDeleteAll, b.ctrl.CancelDeleteAll)
}
