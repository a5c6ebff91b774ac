package model

// Stats — агрегированная статистика для администратора.
type Stats struct {
	TotalUsers           int64
	TotalReports         int64
	OpenReports          int64
	DiscordIntegrations  int64
	TelegramIntegrations int64
}
