package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrorLog is a client-side error reported by the browser.
type ErrorLog struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time     `bson:"timestamp"`
	Message   string        `bson:"message"`
	Stack     string        `bson:"stack,omitempty"`
	Type      string        `bson:"type"`
	Request   RequestInfo   `bson:"request"`
}

// RequestInfo is the subset of the reporting request kept with an ErrorLog.
type RequestInfo struct {
	URL     string            `bson:"url"`
	Method  string            `bson:"method"`
	Headers map[string]string `bson:"headers"`
}
