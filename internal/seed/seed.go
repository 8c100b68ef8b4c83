// Package seed fills a database with demo users, groups, posts and follows.
// It is intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumPosts       int
	NumComments    int
	FollowsPerUser int
	ShouldClean    bool
	// SkipBcrypt stores DemoPassword unhashed; such users cannot log in.
	SkipBcrypt bool
	// RandomSeed makes runs reproducible when non-zero.
	RandomSeed int64
	MaxDays    int
}

// DefaultOptions is what `cmd/seed` uses without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:       20,
		NumPosts:       120,
		NumComments:    200,
		FollowsPerUser: 4,
		ShouldClean:    true,
		MaxDays:        60,
	}
}

// Summary reports what a run inserted.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d groups, %d posts, %d comments, %d follows",
		s.Users, s.Groups, s.Posts, s.Comments, s.Follows)
}

// Seeder generates and stores demo content.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 60
	}
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(seed)}
}

// ClearAll deletes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []interface{}{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	log.Println("Cleared existing data")
	return nil
}

// Run seeds groups, users, posts, follows and comments in that order.
func (s *Seeder) Run() (Summary, error) {
	var summary Summary
	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return summary, err
		}
	}

	groups, err := Groups(s.db)
	if err != nil {
		return summary, err
	}
	summary.Groups = len(groups)

	users, err := s.createUsers(s.opts.NumUsers)
	if err != nil {
		return summary, err
	}
	summary.Users = len(users)

	posts, err := s.createPosts(users, groups, s.opts.NumPosts)
	if err != nil {
		return summary, err
	}
	summary.Posts = len(posts)

	if summary.Follows, err = s.createFollows(users, s.opts.FollowsPerUser); err != nil {
		return summary, err
	}
	if summary.Comments, err = s.createComments(users, posts, s.opts.NumComments); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Seeder) password() (string, error) {
	if s.opts.SkipBcrypt {
		return DemoPassword, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Seeder) createUsers(n int) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	password, err := s.password()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	seen := make(map[string]struct{}, n)
	for len(users) < n {
		first, last := s.faker.FirstName(), s.faker.LastName()
		username := slugify(fmt.Sprintf("%s_%s%d", first, last, s.faker.Number(10, 99)))
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}
		users = append(users, models.User{
			Username:  username,
			Email:     username + "@example.com",
			FirstName: first,
			LastName:  last,
			Password:  password,
		})
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("creating users: %w", err)
	}
	return users, nil
}

func (s *Seeder) createPosts(users []models.User, groups []models.Group, n int) ([]models.Post, error) {
	if n <= 0 || len(users) == 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		post := models.Post{
			Text:     s.faker.Paragraph(1, s.faker.Number(2, 5), 12, " "),
			AuthorID: author.ID,
			PubDate:  s.faker.DateRange(time.Now().AddDate(0, 0, -s.opts.MaxDays), time.Now()),
		}
		// Roughly two thirds of posts belong to a group.
		if len(groups) > 0 && s.faker.Number(1, 3) > 1 {
			groupID := groups[s.faker.Number(0, len(groups)-1)].ID
			post.GroupID = &groupID
		}
		posts = append(posts, post)
	}
	if err := s.db.Omit(clause.Associations).CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("creating posts: %w", err)
	}
	return posts, nil
}

func (s *Seeder) createFollows(users []models.User, perUser int) (int, error) {
	if perUser <= 0 || len(users) < 2 {
		return 0, nil
	}
	perUser = min(perUser, len(users)-1)

	var follows []models.Follow
	for _, reader := range users {
		picked := make(map[uint]struct{}, perUser)
		for len(picked) < perUser {
			author := users[s.faker.Number(0, len(users)-1)]
			if author.ID == reader.ID {
				continue
			}
			if _, dup := picked[author.ID]; dup {
				continue
			}
			picked[author.ID] = struct{}{}
			follows = append(follows, models.Follow{UserID: reader.ID, AuthorID: author.ID})
		}
	}
	if err := s.db.Omit(clause.Associations).CreateInBatches(&follows, 100).Error; err != nil {
		return 0, fmt.Errorf("creating follows: %w", err)
	}
	return len(follows), nil
}

func (s *Seeder) createComments(users []models.User, posts []models.Post, n int) (int, error) {
	if n <= 0 || len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}
	comments := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		post := posts[s.faker.Number(0, len(posts)-1)]
		comments = append(comments, models.Comment{
			PostID:   post.ID,
			AuthorID: users[s.faker.Number(0, len(users)-1)].ID,
			Text:     s.faker.Sentence(s.faker.Number(4, 14)),
		})
	}
	if err := s.db.Omit(clause.Associations).CreateInBatches(&comments, 100).Error; err != nil {
		return 0, fmt.Errorf("creating comments: %w", err)
	}
	return len(comments), nil
}

func slugify(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
}
