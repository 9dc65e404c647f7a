package cli

import (
	"time"

	"schoolplus/internal/app"
	"schoolplus/internal/config"
	"schoolplus/internal/domain"
	"schoolplus/internal/infra/httpapi"
)

func loadConfig(configPath, apiOverride string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if apiOverride != "" {
		cfg.API.BaseURL = apiOverride
	}
	return cfg, nil
}

// tabDeps builds the collaborators shared by every tab from the config.
func tabDeps(cfg config.Config) app.TabDeps {
	client := httpapi.NewClient(cfg.API.BaseURL, config.Duration(cfg.API.Timeout, 30*time.Second))
	defaults := app.DefaultQuizTimings()
	timings := app.QuizTimings{
		FeedbackDelay:     config.Duration(cfg.Quiz.FeedbackDelay, defaults.FeedbackDelay),
		AnimationDuration: config.Duration(cfg.Quiz.AnimationDuration, defaults.AnimationDuration),
		AnimationFrame:    config.Duration(cfg.Quiz.AnimationFrame, defaults.AnimationFrame),
	}
	return app.TabDeps{
		Quiz:          httpapi.NewQuizClient(client),
		Chat:          httpapi.NewChatClient(client),
		Forum:         httpapi.NewForumClient(client),
		QuizOptions:   []app.QuizOption{app.WithTimings(timings)},
		ChatOptions:   []app.ChatOption{app.WithDefaults(cfg.Chat.Model, cfg.Chat.Temperature)},
		Notifications: sampleNotifications(),
	}
}

// sampleNotifications seeds the notification center until the platform serves them.
func sampleNotifications() []domain.Notification {
	return []domain.Notification{
		{ID: "1", Text: "Midterm grades have been posted.", Unread: true},
		{ID: "2", Text: "New reply on your forum issue.", Unread: true},
		{ID: "3", Text: "Library hours change next week."},
	}
}
