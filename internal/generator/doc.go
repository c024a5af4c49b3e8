// Package generator provides the file-operation toolkit behind builds:
// validated operations, dry-run execution, transactional scaffolding, region
// diffs, and conflict resolution for unmanaged files.
//
// # Operations
//
// Every write goes through an Operation, which is validated before any
// operation in the batch executes:
//
//	ops := []generator.Operation{
//	    &generator.WriteFileOp{Path: "src/greet.ts", Content: wrapped, Mode: 0644},
//	}
//	err := generator.Execute(ctx, ops, generator.ExecuteOptions{DryRun: dryRun})
//
// # Transactions
//
// Scaffolding uses transactions so a failed init leaves nothing behind:
//
//	tx := generator.NewTransaction()
//	tx.AddFile("codefactory.yml", config, 0644)
//	tx.AddFile(".codefactory/templates/greeting.factory.tmpl", example, 0644)
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
package generator
