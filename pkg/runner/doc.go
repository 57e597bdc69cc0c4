/*
Package runner hosts the complaint intake conversation.

Bot turns one inbound message into a committed session transition plus the
replies to send. Dispatcher feeds a Transport's inbound stream to the Bot,
one worker per conversant so a conversant's messages never overlap.

# Usage

	bot := runner.NewBot(session.NewManager(memory.NewStore()),
		runner.WithLogger(logger),
		runner.WithHooks(metrics.Hooks()),
	)

	d := runner.NewDispatcher(bot, runner.WithDispatcherLogger(logger))
	if err := d.Run(ctx, transport); err != nil {
		log.Fatal(err)
	}
*/
package runner
