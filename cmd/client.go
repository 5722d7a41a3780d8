package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sync-photo-client/internal/cache"
	"sync-photo-client/internal/config"
	"sync-photo-client/internal/media"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/realtime"
	"sync-photo-client/internal/remote"
	"sync-photo-client/internal/services"
	"sync-photo-client/internal/session"
	"sync-photo-client/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog/log"
)

var errUsage = errors.New("invalid arguments")

// client holds the wired client core for one command invocation
type client struct {
	cfg      *config.Config
	remote   *remote.HTTPClient
	session  *session.Store
	services *services.Services
}

type clientCommand func(ctx context.Context, c *client, args []string) error

var clientCommands = map[string]clientCommand{
	"signup":   signUp,
	"login":    signIn,
	"logout":   logout,
	"whoami":   whoami,
	"profile":  profile,
	"groups":   listGroups,
	"create":   createGroup,
	"join":     joinGroup,
	"photos":   listPhotos,
	"feed":     feed,
	"like":     toggleLike,
	"upload":   upload,
	"feedback": feedback,
	"watch":    watch,
}

// runClient wires the client core around the persisted session and runs one command
func runClient(cfg *config.Config, run clientCommand, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.OpenBolt(cfg.Session.Path)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Session.Path).Msg("Failed to open session storage")
		return 1
	}
	defer kv.Close()

	var presigner media.Presigner
	if cfg.Storage.Presign {
		p, err := media.NewS3Presigner(cfg.Storage)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create presigner")
			return 1
		}
		presigner = p
	}

	api := remote.NewHTTPClient(cfg.API.BaseURL, cfg.API.Timeout)
	store := session.NewStore(kv, api)
	if _, err := store.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore session")
	}

	svc, err := services.New(
		api,
		store,
		cache.New(),
		media.NewResolver(cfg.Storage.BaseURL, cfg.Storage.Bucket, presigner),
		cfg.Sync,
		appVersion,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure services")
		return 1
	}

	c := &client{cfg: cfg, remote: api, session: store, services: svc}
	if err := run(ctx, c, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, remote.Message(err))
		return 1
	}
	return 0
}

func (c *client) requireSession() error {
	if !c.session.Current().IsLoggedIn() {
		return errors.New("not signed in, run login first")
	}
	return nil
}

func signUp(ctx context.Context, c *client, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	var username *string
	if len(args) == 3 {
		username = models.String(args[2])
	}
	user, err := c.services.Users.SignUp(ctx, args[0], args[1], username)
	if err != nil {
		return err
	}
	fmt.Printf("Signed up as %s\n", displayName(user))
	return nil
}

func signIn(ctx context.Context, c *client, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	user, err := c.services.Users.SignIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", displayName(user))
	return nil
}

func logout(ctx context.Context, c *client, _ []string) error {
	if err := c.services.Users.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func whoami(ctx context.Context, c *client, _ []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	user, err := c.services.Users.LoadCurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", displayName(user), user.Email)
	if user.CreatedAt != nil {
		fmt.Printf("member since %s\n", humanize.Time(*user.CreatedAt))
	}
	return nil
}

func profile(ctx context.Context, c *client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	user, err := c.services.Users.UpdateProfile(ctx, models.String(args[0]), nil)
	if err != nil {
		return err
	}
	fmt.Printf("Username set to %s\n", displayName(user))
	return nil
}

func listGroups(ctx context.Context, c *client, _ []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	groups, err := c.services.Groups.LoadGroups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No groups yet")
		return nil
	}
	for _, g := range groups {
		fmt.Printf("%s  %-24s code %s  %s\n", g.ID, g.Name, g.JoinCode, english.Plural(g.MemberCount, "member", "members"))
	}
	return nil
}

func createGroup(ctx context.Context, c *client, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	var description *string
	if len(args) > 1 {
		description = models.String(strings.Join(args[1:], " "))
	}
	group, err := c.services.Groups.CreateGroup(ctx, args[0], description)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s, share code %s\n", group.Name, group.JoinCode)
	return nil
}

func joinGroup(ctx context.Context, c *client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	group, err := c.services.Groups.JoinGroup(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Joined %s\n", group.Name)
	return nil
}

func listPhotos(ctx context.Context, c *client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	photos, err := c.services.Photos.LoadGroupPhotos(ctx, args[0])
	if err != nil {
		return err
	}
	printPhotos(ctx, c, photos)
	return nil
}

func feed(ctx context.Context, c *client, _ []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	photos, err := c.services.Photos.LoadFeed(ctx)
	if err != nil {
		return err
	}
	printPhotos(ctx, c, photos)
	return nil
}

func toggleLike(ctx context.Context, c *client, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	// Seed the current like state so the toggle flips the right way
	if _, err := c.services.Photos.LoadGroupPhotos(ctx, args[0]); err != nil {
		return err
	}
	state, err := c.services.Likes.Toggle(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	verb := "Unliked"
	if state.Liked {
		verb = "Liked"
	}
	fmt.Printf("%s, %s\n", verb, english.Plural(state.Count, "like", "likes"))
	return nil
}

func upload(ctx context.Context, c *client, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}

	image, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	var capturedAt *time.Time
	if len(args) == 3 {
		t, err := time.Parse(time.RFC3339, args[2])
		if err != nil {
			return fmt.Errorf("capturedAt must be RFC3339: %w", err)
		}
		capturedAt = &t
	} else if info, err := os.Stat(args[1]); err == nil {
		t := info.ModTime()
		capturedAt = &t
	}

	photo, err := c.services.Photos.UploadPhoto(ctx, args[0], image, capturedAt)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s (%s)\n", photo.ID, humanize.Bytes(uint64(len(image))))
	return nil
}

func feedback(ctx context.Context, c *client, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.services.Feedback.Submit(ctx, strings.Join(args, " "), nil); err != nil {
		return err
	}
	fmt.Println("Thanks for the feedback")
	return nil
}

func watch(ctx context.Context, c *client, _ []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if c.cfg.API.WSURL == "" {
		return errors.New("api.ws_url is not configured")
	}

	fmt.Println("Watching group events, press Ctrl+C to stop")
	err := realtime.NewListener(c.cfg.API.WSURL).Listen(ctx, c.session.Current().Token, func(e realtime.Event) {
		line := fmt.Sprintf("%s  group %s", e.Type, e.GroupID)
		if e.PhotoID != "" {
			line += "  photo " + e.PhotoID
		}
		if e.LikeCount != nil {
			line += "  " + english.Plural(*e.LikeCount, "like", "likes")
		}
		fmt.Println(line)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printPhotos(ctx context.Context, c *client, photos []models.Photo) {
	if len(photos) == 0 {
		fmt.Println("No photos yet")
		return
	}
	for _, p := range photos {
		uploaded := "unknown time"
		if p.UploadedAt != nil {
			uploaded = humanize.Time(*p.UploadedAt)
		}
		size := ""
		if p.FileSizeBytes != nil {
			size = humanize.Bytes(uint64(*p.FileSizeBytes))
		}
		liked := ""
		if state, ok := c.services.Likes.State(p.ID); ok && state.Liked {
			liked = " (liked)"
		}
		url, _ := c.services.Photos.ThumbnailURL(ctx, p)
		fmt.Printf("%s  by %-12s %-16s %8s  %s%s\n  %s\n",
			p.ID,
			models.Deref(p.UploadedByUsername),
			uploaded,
			size,
			english.Plural(p.LikeCount, "like", "likes"),
			liked,
			url,
		)
	}
}

func displayName(user models.User) string {
	if name := models.Deref(user.Username); name != "" {
		return name
	}
	return user.Email
}
