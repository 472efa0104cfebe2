package domain

import "time"

// TimelineEvent — запись аудита жизненного цикла заказа.
type TimelineEvent struct {
	ID       string
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
