// Package job defines the job entity, its argument bag, typed definitions,
// and the store interface.
//
// # Job Entity
//
// A [Job] represents a unit of deferred work. Its payload is a JSON object
// holding the handler's keyword arguments. It progresses through:
//
//	pending → running → completed
//	pending → running → retrying → running → ...
//	pending → running → failed
//
// # Argument Bag
//
// [Args] is the decoded payload. The engine stores the enqueuing caller's
// tenant schema under schema.ReservedKey with [Args.SetDefault], and the
// schema middleware removes it with [Args.Pop] before the handler runs.
// A payload that is not a JSON object cannot carry the schema and is
// rejected at enqueue.
//
// # Defining a Job
//
//	var SendInvoice = job.NewDefinition("send_invoice",
//	    func(ctx context.Context, in InvoiceInput) error {
//	        conn := postgres.Conn(ctx) // search_path already points at the tenant
//	        ...
//	    },
//	    job.WithQueue("billing"),
//	)
//
// Register definitions at startup with [RegisterDefinition] or the
// engine.Register wrapper.
package job
