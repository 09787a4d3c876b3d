package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/assessment-backend/internal/app"
	"github.com/yungbote/assessment-backend/internal/bankfile"
)

type fileList []string

func (l *fileList) String() string { return strings.Join(*l, ",") }
func (l *fileList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var files fileList
	var printTokens bool
	var dryRun bool
	flag.Var(&files, "file", "question bank YAML to import (repeatable)")
	flag.BoolVar(&printTokens, "tokens", false, "print an access token for every imported user")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the bank files without writing")
	flag.Parse()

	if len(files) == 0 {
		fmt.Println("no -file provided")
		os.Exit(2)
	}

	banks := make([]*bankfile.Bank, 0, len(files))
	for _, path := range files {
		bank, err := bankfile.Load(path)
		if err != nil {
			fmt.Printf("load %s: %v\n", path, err)
			os.Exit(1)
		}
		banks = append(banks, bank)
	}
	if dryRun {
		for i, bank := range banks {
			fmt.Printf("%s: process=%s rules=%d questions=%d users=%d\n",
				files[i], bank.Process, len(bank.Rules), len(bank.Questions), len(bank.Users))
		}
		return
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	for i, bank := range banks {
		summary, err := application.Services.Import.Import(ctx, bank)
		if err != nil {
			fmt.Printf("import %s: %v\n", files[i], err)
			os.Exit(1)
		}
		fmt.Printf("%s: process=%s rules=%d created=%d updated=%d users=%d\n",
			files[i], summary.Process, summary.Rules, summary.Created, summary.Updated, len(summary.Users))

		if !printTokens {
			continue
		}
		for _, u := range summary.Users {
			token, err := application.Services.Token.Issue(ctx, u)
			if err != nil {
				fmt.Printf("issue token for %s: %v\n", u.Email, err)
				os.Exit(1)
			}
			fmt.Printf("  %s (%s) %s\n", u.Email, u.Role, token)
		}
	}
}
