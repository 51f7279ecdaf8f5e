// Command reconcile lists accounts that have no matching profile, the
// leftovers of signups whose compensation failed or was switched off, and
// optionally deletes them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	accountrepo "github.com/frostx76/microservices-project/internal/account/repo"
	profilerepo "github.com/frostx76/microservices-project/internal/profile/repo"
	"github.com/frostx76/microservices-project/internal/reconcile"
	"github.com/frostx76/microservices-project/pkg/database"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	accountsDSN := flag.String("accounts-dsn", os.Getenv("ACCOUNTS_DATABASE_URL"), "postgres DSN of the auth service")
	profilesDSN := flag.String("profiles-dsn", os.Getenv("PROFILES_DATABASE_URL"), "postgres DSN of the users service")
	remove := flag.Bool("delete", false, "delete orphan accounts instead of only reporting them")
	grace := flag.Duration("grace", reconcile.DefaultGrace, "ignore accounts younger than this; their signup may still be running")
	flag.Parse()

	if *accountsDSN == "" || *profilesDSN == "" {
		fmt.Fprintln(os.Stderr, "both -accounts-dsn and -profiles-dsn are required")
		os.Exit(2)
	}

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	sugar := lg.Sugar().With("service", "reconcile")

	code := run(sugar, *accountsDSN, *profilesDSN, *grace, *remove)
	_ = lg.Sync()
	os.Exit(code)
}

func run(sugar *zap.SugaredLogger, accountsDSN, profilesDSN string, grace time.Duration, remove bool) int {
	accountsDB, err := database.Open(dbConfig(accountsDSN))
	if err != nil {
		sugar.Errorf("accounts db: %v", err)
		return 1
	}
	defer accountsDB.Close()
	profilesDB, err := database.Open(dbConfig(profilesDSN))
	if err != nil {
		sugar.Errorf("profiles db: %v", err)
		return 1
	}
	defer profilesDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := reconcile.New(accountrepo.NewAccountRepo(accountsDB), profilerepo.NewProfileRepo(profilesDB), grace, sugar)
	rep, err := rec.Run(ctx, remove)
	if err != nil {
		sugar.Errorf("%v", err)
		return 1
	}

	fmt.Printf("accounts: %d  profiles: %d  orphans: %d  recent: %d\n",
		rep.Accounts, rep.Profiles, len(rep.Orphans), rep.Recent)
	for _, o := range rep.Orphans {
		fmt.Printf("orphan %d %s (created %s)\n", o.ID, o.Email, o.CreatedAt.Format(time.RFC3339))
	}
	for _, o := range rep.Deleted {
		fmt.Printf("deleted %d %s\n", o.ID, o.Email)
	}
	failed := make([]int64, 0, len(rep.Failed))
	for id := range rep.Failed {
		failed = append(failed, id)
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	for _, id := range failed {
		fmt.Printf("failed %d: %v\n", id, rep.Failed[id])
	}

	if len(rep.Failed) > 0 || (!remove && len(rep.Orphans) > 0) {
		return 3
	}
	return 0
}

func dbConfig(dsn string) database.Config {
	cfg := database.ConfigFromEnv()
	cfg.DSN = dsn
	return cfg
}
