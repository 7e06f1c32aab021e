// Package mocks holds hand-written test doubles for the service, store and
// auth interfaces.
//
// Most doubles use function fields: each method calls its Fn field when set
// and otherwise falls back to a simple default (MockUserStore keeps users in
// memory). TestifyMockSessionStore uses testify/mock for tests that assert on
// call arguments.
//
//	tasks := &mocks.MockTaskService{
//		GetFn: func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
//			return nil, store.ErrTaskNotFound
//		},
//	}
package mocks
