package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/asset"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/audit"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/customer"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/employee"
	employeeentity "github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/order"
	orderentity "github.com/ovaphlow/pitchfork/service-retail-go/internal/order/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product"
	productentity "github.com/ovaphlow/pitchfork/service-retail-go/internal/product/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/utilities"
)

const usage = `usage: retail <command> [flags]

commands:
  migrate        apply schema migrations (admin credentials)
  add-employee   create an employee and its database login
  lock-employee  lock or unlock an employee login
  products       list active products
  add-product    create a product, optionally with an image
  customer       look a customer up by phone number
  order          create an order with its lines
  audit          show the order audit trail
`

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"migrate":       runMigrate,
	"add-employee":  runAddEmployee,
	"lock-employee": runLockEmployee,
	"products":      runProducts,
	"add-product":   runAddProduct,
	"customer":      runCustomer,
	"order":         runOrder,
	"audit":         runAudit,
}

type env struct {
	db     database.Config
	images asset.Config
	logger *zap.SugaredLogger
	out    *json.Encoder
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("db config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{db: dbCfg, images: asset.ConfigFromEnv(), logger: sugar, out: json.NewEncoder(os.Stdout)}
	if err := cmd(ctx, e, os.Args[2:]); err != nil {
		sugar.Errorw("command failed", "command", os.Args[1], "err", err)
		stop()
		_ = lg.Sync()
		os.Exit(1)
	}
}

// credentials registers the operator login flags on fs.
func credentials(fs *flag.FlagSet) (user, password *string) {
	user = fs.String("user", os.Getenv("RETAIL_USER"), "database login of the operator")
	password = fs.String("password", os.Getenv("RETAIL_PASSWORD"), "password of the operator login")
	return user, password
}

func (e *env) open(ctx context.Context, user, password string) (*session.Session, error) {
	return session.Open(ctx, e.db, user, password, e.logger)
}

func runMigrate(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	admin, err := session.OpenAdmin(ctx, e.db, e.logger)
	if err != nil {
		return err
	}
	defer admin.Close()
	if err := database.Migrate(ctx, admin.Executor(), e.db.Dialect, e.logger); err != nil {
		return err
	}
	return e.out.Encode(map[string]any{"migrated": e.db.Dialect.Migrations})
}

func runAddEmployee(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("add-employee", flag.ExitOnError)
	user, password := credentials(fs)
	var emp employeeentity.Employee
	fs.StringVar(&emp.Name, "name", "", "full name")
	fs.StringVar(&emp.Username, "username", "", "login name of the new employee")
	role := fs.String("role", string(employeeentity.RoleEmployee), "MANAGER or EMPLOYEE")
	loginPassword := fs.String("login-password", "", "initial password of the new login")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	address := fs.String("address", "", "postal address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if emp.Username == "" || *loginPassword == "" {
		return errors.New("-username and -login-password are required")
	}
	emp.Role = employeeentity.Role(strings.ToUpper(*role))
	emp.Email, emp.PhoneNumber, emp.Address = optional(*email), optional(*phone), optional(*address)

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()
	admin, err := session.OpenAdmin(ctx, e.db, e.logger)
	if err != nil {
		return err
	}
	defer admin.Close()

	prov := employee.NewDBProvisioner(admin.Executor(), e.db.Dialect, e.db.Name)
	if _, err := employee.NewService(sess, prov, e.logger).Create(ctx, &emp, *loginPassword); err != nil {
		return err
	}
	return e.out.Encode(emp)
}

func runLockEmployee(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("lock-employee", flag.ExitOnError)
	user, password := credentials(fs)
	username := fs.String("username", "", "employee login to lock")
	unlock := fs.Bool("unlock", false, "unlock instead of lock")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()
	admin, err := session.OpenAdmin(ctx, e.db, e.logger)
	if err != nil {
		return err
	}
	defer admin.Close()

	svc := employee.NewService(sess, employee.NewDBProvisioner(admin.Executor(), e.db.Dialect, e.db.Name), e.logger)
	if *unlock {
		err = svc.Unlock(ctx, *username)
	} else {
		err = svc.Lock(ctx, *username)
	}
	if err != nil {
		return err
	}
	return e.out.Encode(map[string]any{"username": *username, "locked": !*unlock})
}

func runProducts(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	user, password := credentials(fs)
	keyword := fs.String("keyword", "", "search keyword")
	filter := fs.String("filter", "", "field to search: name, category_id or brand_id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()

	products, err := product.NewService(sess, nil, e.logger).List(ctx, *keyword, *filter)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := e.out.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

func runAddProduct(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("add-product", flag.ExitOnError)
	user, password := credentials(fs)
	p := productentity.Product{Active: true}
	fs.StringVar(&p.Name, "name", "", "product name")
	fs.Int64Var(&p.UnitPrice, "price", 0, "unit price in the smallest currency unit")
	fs.Int64Var(&p.StockQuantity, "stock", 0, "units in stock")
	category := fs.Int64("category", 0, "category id")
	brand := fs.Int64("brand", 0, "brand id")
	image := fs.String("image", "", "image file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *category > 0 {
		p.CategoryID = category
	}
	if *brand > 0 {
		p.BrandID = brand
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()

	svc := product.NewService(sess, asset.NewImageStore(e.images, e.logger), e.logger)
	id, err := svc.Create(ctx, &p)
	if err != nil {
		return err
	}
	p.ID = id
	if *image != "" {
		if p.Image, err = svc.SetImage(ctx, id, *image); err != nil {
			return err
		}
	}
	return e.out.Encode(p)
}

func runCustomer(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("customer", flag.ExitOnError)
	user, password := credentials(fs)
	phone := fs.String("phone", "", "customer phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()

	c, err := customer.NewService(sess, e.logger).FindByPhone(ctx, *phone)
	if err != nil {
		return err
	}
	return e.out.Encode(c)
}

func runOrder(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	user, password := credentials(fs)
	var o orderentity.Order
	fs.Int64Var(&o.CustomerID, "customer", 0, "customer id")
	fs.Int64Var(&o.EmployeeID, "employee", 0, "employee id")
	var lines []orderentity.Detail
	fs.Func("line", "order line as product_id:quantity (repeatable)", func(v string) error {
		d, err := parseLine(v)
		if err != nil {
			return err
		}
		lines = append(lines, d)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()

	svc := order.NewService(sess, e.logger)
	id, err := svc.Create(ctx, &o, lines)
	if err != nil {
		return err
	}
	details, err := svc.ListDetails(ctx, id)
	if err != nil {
		return err
	}
	return e.out.Encode(map[string]any{"order": o, "details": details})
}

func runAudit(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	user, password := credentials(fs)
	username := fs.String("username", "", "only this user's events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := e.open(ctx, *user, *password)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, err := audit.NewService(sess, e.logger).GetUserAudit(ctx, *username)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := e.out.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func parseLine(v string) (orderentity.Detail, error) {
	productID, quantity, ok := strings.Cut(v, ":")
	if !ok {
		return orderentity.Detail{}, fmt.Errorf("line %q: want product_id:quantity", v)
	}
	pid, err := strconv.ParseInt(productID, 10, 64)
	if err != nil {
		return orderentity.Detail{}, fmt.Errorf("line %q: product id: %w", v, err)
	}
	qty, err := strconv.ParseInt(quantity, 10, 64)
	if err != nil {
		return orderentity.Detail{}, fmt.Errorf("line %q: quantity: %w", v, err)
	}
	return orderentity.Detail{ProductID: pid, Quantity: qty}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
