package graphqlserver

import (
	"context"
	"encoding/json"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"launcher.GO/graphql"
	"launcher.GO/graphql/registry"
	entity "launcher.GO/model/entity"
	catalogService "launcher.GO/service/catalog"
)

func init() {
	registry.Register("stats", func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
		svc := graphql.ServiceFromContext(ctx)
		if svc == nil {
			return nil, nil
		}
		return svc.Stats(), nil
	})
}

// QueryResolver is the graphql-go root; its methods are the Query fields.
type QueryResolver struct {
	svc *catalogService.Service
}

// ServiceResolver exposes one entry together with the category it lives in.
type ServiceResolver struct {
	Title    string
	URL      string
	Image    string
	Category string
}

func newServiceResolver(category string, s entity.Service) *ServiceResolver {
	return &ServiceResolver{Title: s.Title, URL: s.URL, Image: s.Image, Category: category}
}

func (r *QueryResolver) Categories(ctx context.Context) []string {
	out := make([]string, len(entity.Categories))
	for i, c := range entity.Categories {
		out[i] = string(c)
	}
	return out
}

// ServicesArgs matches the services query arguments.
type ServicesArgs struct {
	Category *string
}

func (r *QueryResolver) Services(ctx context.Context, args ServicesArgs) ([]*ServiceResolver, error) {
	if args.Category != nil {
		list, err := r.svc.List(ctx, *args.Category)
		if err != nil {
			return nil, err
		}
		return wrap(*args.Category, list), nil
	}
	doc, err := r.svc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*ServiceResolver
	for _, c := range entity.Categories {
		out = append(out, wrap(string(c), doc.Entries(c))...)
	}
	if out == nil {
		out = []*ServiceResolver{}
	}
	return out, nil
}

// ServiceArgs matches the service query arguments.
type ServiceArgs struct {
	Category string
	Title    string
}

func (r *QueryResolver) Service(ctx context.Context, args ServiceArgs) (*ServiceResolver, error) {
	list, err := r.svc.List(ctx, args.Category)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.Title == args.Title {
			return newServiceResolver(args.Category, s), nil
		}
	}
	return nil, nil
}

// ExtensionArgs for _extension(name, args).
type ExtensionArgs struct {
	Name string
	Args *string
}

func (r *QueryResolver) Extension(ctx context.Context, args ExtensionArgs) (*string, error) {
	m := make(map[string]interface{})
	if args.Args != nil && *args.Args != "" {
		if err := json.Unmarshal([]byte(*args.Args), &m); err != nil {
			return nil, err
		}
	}
	out, err := registry.Resolve(graphql.WithService(ctx, r.svc), args.Name, m)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func wrap(category string, list []entity.Service) []*ServiceResolver {
	out := make([]*ServiceResolver, len(list))
	for i, s := range list {
		out[i] = newServiceResolver(category, s)
	}
	return out
}

// NewSchema parses the schema and returns a graphql-go Schema.
func NewSchema(svc *catalogService.Service) (*gql.Schema, error) {
	return gql.ParseSchema(graphql.Schema(), &QueryResolver{svc: svc}, gql.UseFieldResolvers())
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
