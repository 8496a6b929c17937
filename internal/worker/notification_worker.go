package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/townhall-portal/internal/service"
)

// StartNotificationWorker registers notification handlers on the event dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
