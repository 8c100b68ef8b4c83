package server

import (
	"github.com/gofiber/fiber/v2"
)

// Index shows the global feed.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.feedService.Global(c.UserContext(), pageNumber(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "index", fiber.Map{"Page": page})
}

// GroupPosts shows the feed of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feedService.Group(c.UserContext(), c.Params("slug"), pageNumber(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "group", fiber.Map{
		"Group": feed.Group,
		"Page":  feed.Page,
	})
}

// Profile shows an author's posts and counters.
func (s *Server) Profile(c *fiber.Ctx) error {
	feed, err := s.feedService.Author(c.UserContext(), c.Params("username"), pageNumber(c), currentUser(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "profile", fiber.Map{
		"Author":      feed.Author,
		"Stats":       feed.Stats,
		"IsFollowing": feed.IsFollowing,
		"Page":        feed.Page,
	})
}

// FollowIndex shows posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.Following(c.UserContext(), currentUser(c), pageNumber(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "follow", fiber.Map{"Page": page})
}

func profileURL(username string) string {
	return "/" + username + "/"
}

// ProfileFollow subscribes the viewer to an author.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := s.followService.Follow(c.UserContext(), currentUser(c), username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// ProfileUnfollow removes the subscription, if any.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := s.followService.Unfollow(c.UserContext(), currentUser(c), username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
