package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/env"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

// add_user creates an account directly in the ledger, e.g. the first admin.
func main() {
	name := flag.String("name", "", "full name")
	email := flag.String("email", "", "email address")
	password := flag.String("password", "", "password")
	role := flag.String("role", string(models.RoleAdmin), "customer or admin")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(1)
	}

	env.SetupEnvFile()
	svc := services.New(resource.New(resource.LoadConfig(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := run(ctx, svc, *name, *email, *password, models.Role(*role)); err != nil {
		fmt.Fprintf(os.Stderr, "add_user: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.Services, name, email, password string, role models.Role) error {
	existing, err := svc.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%s is already registered", models.NormalizeEmail(email))
	}

	user, err := models.NewUser(name, email, password, role)
	if err != nil {
		return err
	}
	created, err := svc.Users.Create(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s %s (%s)\n", created.Role, created.Email, created.ID)
	return nil
}
