package job

import "go-jackpot/internal/http-server/handlers/event"

type SendEventJob struct {
	EventMessage event.Message
	Event        event.Pusher
}

func (job *SendEventJob) Execute() {
	if err := job.Event.TriggerEvent(job.EventMessage); err != nil {
		return
	}
}
