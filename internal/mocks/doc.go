// Package mocks provides shared test doubles for the store, publisher and
// broker interfaces.
//
// Store and publisher mocks follow one pattern: an optional Fn field per
// method overrides the behaviour, default return fields are used otherwise,
// and every call is recorded for verification:
//
//	tasks := &mocks.MockTaskStore{
//	    GetByIDsFn: func(ctx context.Context, ids []int64) ([]domain.Task, error) {
//	        return nil, errors.New("db down")
//	    },
//	}
//
// The broker mocks model an amqp connection closely enough to drive a
// consumer: deliveries are fed through MockChannel.Deliveries, and Fail
// simulates the broker closing a channel or connection.
package mocks
