// Package resilience groups the fault tolerance helpers used around external calls.
//
// Inference backends combine both layers: retry.WithBackoff drives attempts and every
// attempt goes through the backend's circuit breaker.
//
//	err := retry.WithBackoff(ctx, retry.InferenceConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return client.Generate(ctx, prompt)
//	    })
//	    return err
//	})
package resilience
