package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/prompt"
	"github.com/vishrut/portfolio-chat/internal/relay"
	"github.com/vishrut/portfolio-chat/internal/relevance"
	"github.com/vishrut/portfolio-chat/internal/server"
	"github.com/vishrut/portfolio-chat/internal/store"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	gin.SetMode(a.cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatProvider := a.chatProvider()
	composer := prompt.NewComposer(a.cfg.OwnerName, a.cfg.HistoryWindow)
	kb := a.knowledge.Get()

	chat, err := relay.New(classifier(a.cfg.ChatProfile, kb), composer, a.knowledge, chatProvider, a.log)
	if err != nil {
		return err
	}
	stream, err := relay.New(classifier(a.cfg.StreamProfile, kb), composer, a.knowledge, chatProvider, a.log)
	if err != nil {
		return err
	}

	if a.cfg.KnowledgeWatch {
		err := a.knowledge.Watch(ctx, func(kb *internal.KnowledgeBase) {
			chat.SetClassifier(classifier(a.cfg.ChatProfile, kb))
			stream.SetClassifier(classifier(a.cfg.StreamProfile, kb))
		})
		if err != nil {
			a.log.WithError(err).Warn("knowledge watch disabled")
		}
	}

	srv := server.New(server.Options{
		Chat:      chat,
		Stream:    stream,
		Advisory:  relevance.New(relevance.Advisory()),
		Knowledge: a.knowledge,
		Sessions:  store.NewMemoryStore(a.cfg.SessionTTL, store.SystemClock),
		Log:       a.log,
		Origins:   a.cfg.AllowedOrigins,
	})
	go srv.SweepSessions(ctx, sweepInterval)

	httpSrv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	a.log.WithFields(logrus.Fields{
		"port":     a.cfg.Port,
		"model":    chatProvider.Model(),
		"projects": len(kb.Projects),
		"media":    len(kb.Media),
		"timeline": len(kb.Timeline),
	}).Info("portfolio chat listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
