package config

const (
	PathHealthCheck           = "/"
	PathLogin                 = "/login"
	PathLogout                = "/logout"
	PathMe                    = "/me"
	PathCreateCampaign        = "/create_campaign"
	PathGetCampaigns          = "/get_campaigns"
	PathGetCampaign           = "/get_campaign"
	PathDeleteCampaign        = "/delete_campaign"
	PathUpdateCampaignStatus  = "/update_campaign_status"
	PathGetCampaignLogs       = "/get_campaign_logs"
	PathDeliveryReceipt       = "/delivery_receipt"
	PathPreviewAudience       = "/preview_audience"
	PathGetCustomers          = "/get_customers"
	PathCountCustomers        = "/count_customers"
	PathGetNotifications      = "/get_notifications"
	PathMarkNotificationRead  = "/mark_notification_read"
	PathMarkAllNotifsRead     = "/mark_all_notifications_read"
	PathDeleteNotification    = "/delete_notification"
	PathGetDashboardStats     = "/get_dashboard_stats"
	PathSuggestMessages       = "/suggest_messages"
	PathConvertSegmentPrompt  = "/convert_segment_prompt"
	PathLookalikeSegment      = "/lookalike_segment"
	PathSchedulingSuggestions = "/scheduling_suggestions"
)

const (
	DefaultPort              = 8000
	LogLevelDebug            = "DEBUG"
	DefaultDeliveryBatchSize = 50
)
