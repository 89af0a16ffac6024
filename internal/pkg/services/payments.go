package services

import (
	"context"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const paymentsPath = "payments"

// maxFanOut bounds concurrent ledger requests of one ListByUser call.
const maxFanOut = 8

type PaymentService struct {
	client       *resource.Client
	installments *InstallmentService
}

func (s *PaymentService) ListAll(ctx context.Context) ([]models.Payment, error) {
	return s.list(ctx, nil, "fetch payments")
}

// Get returns nil when the payment does not exist.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return resource.Get[models.Payment](ctx, s.client, resource.Path(paymentsPath, id), nil, resource.Options{
		AllowNotFound: true,
		ErrorContext:  "fetch payment",
	})
}

func (s *PaymentService) ListByInstallment(ctx context.Context, installmentID string) ([]models.Payment, error) {
	return s.list(ctx, url.Values{"installmentId": {installmentID}}, "fetch payments")
}

func (s *PaymentService) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	return s.list(ctx, url.Values{"status": {string(status)}}, "fetch payments by status")
}

func (s *PaymentService) ListByType(ctx context.Context, paymentType models.PaymentType) ([]models.Payment, error) {
	return s.list(ctx, url.Values{"payment_type": {string(paymentType)}}, "fetch payments by type")
}

// ListByUser collects the payments of all installment plans of a user,
// newest first.
func (s *PaymentService) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	plans, err := s.installments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	perPlan := make([][]models.Payment, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)
	for i := range plans {
		i := i
		g.Go(func() error {
			payments, err := s.ListByInstallment(gctx, plans[i].ID)
			if err != nil {
				return err
			}
			perPlan[i] = payments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]models.Payment, 0)
	for _, payments := range perPlan {
		all = append(all, payments...)
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].CreatedAt.After(all[b].CreatedAt)
	})
	return all, nil
}

// Create stores a payment record without touching the plan balance.
// Lifecycle code uses InstallmentService.RecordPayment instead.
func (s *PaymentService) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	return resource.Post[models.Payment](ctx, s.client, resource.Path(paymentsPath), payment, resource.Options{
		ErrorContext: "create payment",
	})
}

func (s *PaymentService) Delete(ctx context.Context, id string) error {
	return resource.Delete(ctx, s.client, resource.Path(paymentsPath, id), resource.Options{
		ErrorContext: "delete payment",
		Resource:     "Payment",
	})
}

func (s *PaymentService) list(ctx context.Context, q url.Values, errorContext string) ([]models.Payment, error) {
	return resource.List[models.Payment](ctx, s.client, resource.Path(paymentsPath), q, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       errorContext,
	})
}
