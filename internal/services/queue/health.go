package queue

// HealthCheck checks if RabbitMQ is available and the queue still exists.
// A missing queue makes the broker close the channel used to inspect it, so
// the check runs on a short-lived channel of its own and never touches the
// one events are published on.
func (q *AMQPPublisher) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	ch, err := q.openChannel()
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	defer ch.Close()

	if _, err := ch.QueueInspect(q.queueName); err != nil {
		return "unhealthy: " + err.Error()
	}

	return "healthy"
}
