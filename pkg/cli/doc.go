/*
Package cli provides command-line helpers shared by the bizbridge commands.

Output Formatting:

Commands that list things build a Table and render it in the format the
user asked for:

	table := &cli.Table{Headers: []string{"NAME", "STATUS"}}
	table.Append("alpha", "ok")
	if err := cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Text output is column-aligned, CSV output writes the headers first, and JSON
output is an array of objects keyed by the lower-cased headers.

Progress Reporting:

Long-running checks report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(items)))
	for i := range items {
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
