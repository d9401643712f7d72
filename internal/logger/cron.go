package logger

// CronAdapter satisfies the cron.Logger interface on top of the zap logger.
type CronAdapter struct {
	log *Logger
}

// Cron wraps l for use with robfig/cron.
func Cron(l *Logger) CronAdapter {
	return CronAdapter{log: l.Named("cron")}
}

// Info logs routine scheduler messages at debug level; cron is chatty.
func (a CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.log.Debugw(msg, keysAndValues...)
}

func (a CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.log.Errorw(msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
