package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/config"
	"github.com/vishrut/portfolio-chat/internal/knowledge"
	"github.com/vishrut/portfolio-chat/internal/logging"
	"github.com/vishrut/portfolio-chat/internal/provider"
	"github.com/vishrut/portfolio-chat/internal/relevance"
)

// app is what every command needs: settings, a logger and the knowledge base.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	knowledge *knowledge.Cache
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	cache := knowledge.NewCache(knowledge.NewLoader(cfg.DataDir, log))
	return &app{cfg: cfg, log: log, knowledge: cache}, nil
}

// chatProvider uses OpenAI when a key is configured and the offline mock
// otherwise.
func (a *app) chatProvider() provider.ChatProvider {
	if a.cfg.OpenAIAPIKey == "" {
		a.log.Warn("OPENAI_API_KEY not set, using mock provider")
		return provider.MockProvider{}
	}
	p, err := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:  a.cfg.OpenAIAPIKey,
		Model:   a.cfg.OpenAIModel,
		BaseURL: a.cfg.OpenAIBaseURL,
		Timeout: a.cfg.OpenAITimeout,
	})
	if err != nil {
		a.log.WithError(err).Warn("openai provider unavailable, using mock provider")
		return provider.MockProvider{}
	}
	return p
}

// classifier builds a profile's classifier seeded with the companies and
// skills named in kb.
func classifier(profile string, kb *internal.KnowledgeBase) *relevance.Classifier {
	return relevance.New(relevance.ProfileByName(profile),
		relevance.WithKnownCompanies(knowledge.Companies(kb)...),
		relevance.WithKnownSkills(knowledge.Skills(kb)...),
	)
}
