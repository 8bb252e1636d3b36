package rabbitmq

// QueueConfig имя очереди и ключ маршрутизации в exchange notifications.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Имена очередей и ключи маршрутизации уведомлений реферальной программы.
const (
	EarningsQueue      = "notification.earnings"
	EarningsRoutingKey = "earnings"
	ReportQueue        = "notification.report"
	ReportRoutingKey   = "report"
)

// GetNotificationQueues возвращает очереди, которые объявляет и слушает
// сервис отправки уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EarningsQueue, RoutingKey: EarningsRoutingKey},
		{QueueName: ReportQueue, RoutingKey: ReportRoutingKey},
	}
}
