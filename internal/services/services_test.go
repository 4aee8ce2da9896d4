package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/database"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"github.com/yukikurage/group-chat-api/internal/storage"
	"github.com/yukikurage/group-chat-api/internal/thumbnail"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServicesTestSuite struct {
	suite.Suite
	db       *gorm.DB
	store    *storage.Memory
	auth     *AuthService
	groups   *GroupService
	messages *MessageService
	profiles *ProfileService
}

func (s *ServicesTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(database.Models()...))
	s.db = db

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	s.store = storage.NewMemory()
	s.auth = NewAuthService(userRepo)
	s.groups = NewGroupService(groupRepo)
	s.messages = NewMessageService(messageRepo, groupRepo)
	s.profiles = NewProfileService(profileRepo, s.store, thumbnail.NewNormalizer(s.store, 300))
}

func (s *ServicesTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func (s *ServicesTestSuite) countUsers() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.User{}).Count(&n).Error)
	return n
}

func (s *ServicesTestSuite) mustUser(email string) *models.User {
	user, err := s.auth.CreateUser(email, "supersecret")
	s.Require().NoError(err)
	return user
}

func (s *ServicesTestSuite) mustGroup(name string, creator *models.User) *models.Group {
	group, err := s.groups.CreateGroup(CreateGroupInput{Name: name, CreatorID: creator.ID})
	s.Require().NoError(err)
	return group
}

func pngOf(t require.TestingT, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// User factory

func (s *ServicesTestSuite) TestCreateUser_EmptyEmailPersistsNothing() {
	_, err := s.auth.CreateUser("", "supersecret")
	s.ErrorIs(err, ErrEmailRequired)

	_, err = s.auth.CreateUser("   ", "supersecret")
	s.ErrorIs(err, ErrEmailRequired)

	s.Zero(s.countUsers())
}

func (s *ServicesTestSuite) TestCreateUser_NormalizesAndHashes() {
	user, err := s.auth.CreateUser("  Alice@Example.COM ", "supersecret")
	s.Require().NoError(err)

	s.Equal("Alice@example.com", user.Email)
	s.False(user.IsSuperuser)
	s.NotEqual("supersecret", user.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))

	profile, err := s.profiles.GetProfile(user.ID)
	s.Require().NoError(err)
	s.Equal("default.png", profile.Image)
}

func (s *ServicesTestSuite) TestCreateUser_EmptyPasswordIsUnusable() {
	user, err := s.auth.CreateUser("bot@example.com", "")
	s.Require().NoError(err)
	s.False(user.HasUsablePassword())

	_, err = s.auth.Login(LoginInput{Email: "bot@example.com", Password: ""})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServicesTestSuite) TestCreateSuperuser() {
	admin, err := s.auth.CreateSuperuser("root@example.com", "supersecret")
	s.Require().NoError(err)
	s.True(admin.IsSuperuser)

	_, err = s.auth.CreateSuperuser("fake@example.com", "supersecret", WithSuperuser(false))
	s.ErrorIs(err, ErrSuperuserFlag)

	_, err = s.auth.CreateSuperuser("", "supersecret")
	s.ErrorIs(err, ErrEmailRequired)

	s.Equal(int64(1), s.countUsers())
}

func (s *ServicesTestSuite) TestCreateUser_DuplicateEmail() {
	s.mustUser("a@example.com")
	_, err := s.auth.CreateUser("a@EXAMPLE.com", "supersecret")
	s.ErrorIs(err, ErrFailedToCreateUser)
}

func (s *ServicesTestSuite) TestSignupAndLogin() {
	_, err := s.auth.Signup(SignupInput{Email: "a@example.com", Password: "short"})
	s.ErrorIs(err, ErrPasswordTooShort)

	user, err := s.auth.Signup(SignupInput{Email: "a@example.com", Password: "supersecret"})
	s.Require().NoError(err)

	_, err = s.auth.Signup(SignupInput{Email: "a@example.com", Password: "supersecret"})
	s.ErrorIs(err, ErrEmailTaken)

	_, err = s.auth.Login(LoginInput{Email: "a@example.com", Password: "wrongpassword"})
	s.ErrorIs(err, ErrInvalidCredentials)

	loggedIn, err := s.auth.Login(LoginInput{Email: "a@EXAMPLE.COM", Password: "supersecret"})
	s.Require().NoError(err)
	s.Equal(user.ID, loggedIn.ID)
	s.NotNil(loggedIn.LastLogin)
}

func (s *ServicesTestSuite) TestSentinelCannotLogInOrBeDeleted() {
	sentinel, err := s.auth.EnsureSentinelUser()
	s.Require().NoError(err)

	_, err = s.auth.Login(LoginInput{Email: models.SentinelEmail, Password: ""})
	s.ErrorIs(err, ErrInvalidCredentials)

	s.ErrorIs(s.auth.DeleteUser(sentinel.ID), ErrCannotDeleteSentinel)
}

// Deletion policies

func (s *ServicesTestSuite) TestDeleteUser_ReassignsToSentinel() {
	alice := s.mustUser("alice@example.com")
	group := s.mustGroup("general", alice)
	_, err := s.messages.PostMessage(group, alice.ID, "hello")
	s.Require().NoError(err)

	s.Require().NoError(s.auth.DeleteUser(alice.ID))

	sentinel, err := s.auth.EnsureSentinelUser()
	s.Require().NoError(err)

	reloaded, err := s.groups.GetGroup("general")
	s.Require().NoError(err)
	s.Equal(sentinel.ID, reloaded.CreatorID)
	s.Equal(models.SentinelEmail, reloaded.Creator.Email)

	window, err := s.messages.LastMessages("general", 0)
	s.Require().NoError(err)
	s.Require().Len(window, 1)
	s.Equal(sentinel.ID, window[0].UserID)

	_, err = s.auth.GetUser(alice.ID)
	s.ErrorIs(err, ErrUserNotFound)
	s.ErrorIs(s.auth.DeleteUser(alice.ID), ErrUserNotFound)
}

func (s *ServicesTestSuite) TestDeleteGroup_CascadesMessages() {
	alice := s.mustUser("alice@example.com")
	bob := s.mustUser("bob@example.com")
	group := s.mustGroup("general", alice)
	for i := 0; i < 5; i++ {
		_, err := s.messages.PostMessage(group, alice.ID, fmt.Sprintf("msg %d", i))
		s.Require().NoError(err)
	}

	s.ErrorIs(s.groups.DeleteGroup(group, bob.ID), ErrNotGroupCreator)
	s.Require().NoError(s.groups.DeleteGroup(group, alice.ID))

	var count int64
	s.Require().NoError(s.db.Model(&models.Message{}).Count(&count).Error)
	s.Zero(count)

	_, err := s.groups.GetGroup("general")
	s.ErrorIs(err, ErrGroupNotFound)
	_, err = s.auth.GetUser(alice.ID)
	s.NoError(err)
}

// Groups

func (s *ServicesTestSuite) TestCreateGroup_Validation() {
	alice := s.mustUser("alice@example.com")

	for _, name := range []string{"", "has space", "way-too-long-group-name", "émoji"} {
		_, err := s.groups.CreateGroup(CreateGroupInput{Name: name, CreatorID: alice.ID})
		s.ErrorIs(err, ErrInvalidGroupName, name)
	}

	long := string(bytes.Repeat([]byte("x"), 301))
	_, err := s.groups.CreateGroup(CreateGroupInput{Name: "ok", CreatorID: alice.ID, Description: &long})
	s.ErrorIs(err, ErrDescriptionTooLong)

	s.mustGroup("general", alice)
	_, err = s.groups.CreateGroup(CreateGroupInput{Name: "general", CreatorID: alice.ID})
	s.ErrorIs(err, ErrGroupNameTaken)
}

func (s *ServicesTestSuite) TestJoinLeaveAndUpdate() {
	alice := s.mustUser("alice@example.com")
	bob := s.mustUser("bob@example.com")
	group := s.mustGroup("general", alice)

	_, err := s.messages.PostMessage(group, bob.ID, "let me in")
	s.ErrorIs(err, ErrGroupMemberNotFound)

	_, err = s.groups.JoinGroup("general", bob.ID)
	s.Require().NoError(err)
	_, err = s.groups.JoinGroup("general", bob.ID)
	s.ErrorIs(err, ErrAlreadyGroupMember)
	_, err = s.groups.JoinGroup("missing", bob.ID)
	s.ErrorIs(err, ErrGroupNotFound)

	_, err = s.messages.PostMessage(group, bob.ID, "   ")
	s.ErrorIs(err, ErrEmptyMessage)

	description := "  all things general  "
	_, err = s.groups.UpdateDescription(group, bob.ID, &description)
	s.ErrorIs(err, ErrNotGroupCreator)
	updated, err := s.groups.UpdateDescription(group, alice.ID, &description)
	s.Require().NoError(err)
	s.Equal("all things general", *updated.Description)

	groups, err := s.groups.ListGroupsForUser(bob.ID)
	s.Require().NoError(err)
	s.Len(groups, 1)

	s.Require().NoError(s.groups.LeaveGroup(group.ID, bob.ID))
	s.ErrorIs(s.groups.LeaveGroup(group.ID, bob.ID), ErrGroupMemberNotFound)
}

// Message pagination

func (s *ServicesTestSuite) TestLastMessages_Windows() {
	alice := s.mustUser("alice@example.com")
	group := s.mustGroup("general", alice)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	msgRepo := repository.NewMessageRepository(s.db)
	// 45 messages with increasing timestamps, inserted newest first.
	for i := 44; i >= 0; i-- {
		s.Require().NoError(msgRepo.Create(&models.Message{
			GroupID:    group.ID,
			UserID:     alice.ID,
			Text:       fmt.Sprintf("m%02d", i),
			DatePosted: base.Add(time.Duration(i) * time.Second),
		}))
	}

	page0, err := s.messages.LastMessages("general", 0)
	s.Require().NoError(err)
	s.Require().Len(page0, 30)
	s.Equal("m15", page0[0].Text)
	s.Equal("m44", page0[29].Text)

	page1, err := s.messages.LastMessages("general", 1)
	s.Require().NoError(err)
	s.Require().Len(page1, 15)
	s.Equal("m00", page1[0].Text)
	s.Equal("m14", page1[14].Text)

	page2, err := s.messages.LastMessages("general", 2)
	s.Require().NoError(err)
	s.Empty(page2)

	_, err = s.messages.LastMessages("general", -1)
	s.ErrorIs(err, ErrInvalidPage)

	_, err = s.messages.LastMessages("missing", 0)
	s.ErrorIs(err, ErrGroupNotFound)
}

func (s *ServicesTestSuite) TestLastMessages_EmptyGroup() {
	alice := s.mustUser("alice@example.com")
	s.mustGroup("general", alice)

	page, err := s.messages.LastMessages("general", 0)
	s.Require().NoError(err)
	s.Empty(page)
}

// Profiles and images

func (s *ServicesTestSuite) TestUpdateBio() {
	alice := s.mustUser("alice@example.com")

	bio := " hi there "
	profile, err := s.profiles.UpdateBio(alice.ID, &bio)
	s.Require().NoError(err)
	s.Equal("hi there", *profile.Bio)

	profile, err = s.profiles.UpdateBio(alice.ID, nil)
	s.Require().NoError(err)
	s.Nil(profile.Bio)

	long := string(bytes.Repeat([]byte("b"), 301))
	_, err = s.profiles.UpdateBio(alice.ID, &long)
	s.ErrorIs(err, ErrBioTooLong)
}

func (s *ServicesTestSuite) TestUpdateProfileImage_ThumbnailsLargeUpload() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")

	profile, err := s.profiles.UpdateProfileImage(ctx, alice, "me.png", bytes.NewReader(pngOf(s.T(), 600, 400)))
	s.Require().NoError(err)
	s.Equal("profile_pics/alice@example.com/me.png", profile.Image)

	data, err := storage.ReadAll(ctx, s.store, profile.Image)
	s.Require().NoError(err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	s.Require().NoError(err)
	s.Equal("png", format)
	s.Equal(300, cfg.Width)
	s.Equal(200, cfg.Height)
}

func (s *ServicesTestSuite) TestUpdateProfileImage_SmallUploadUntouched() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")
	original := pngOf(s.T(), 120, 80)

	profile, err := s.profiles.UpdateProfileImage(ctx, alice, "small.png", bytes.NewReader(original))
	s.Require().NoError(err)

	data, err := storage.ReadAll(ctx, s.store, profile.Image)
	s.Require().NoError(err)
	s.Equal(original, data)
	s.Equal(1, s.store.Writes(profile.Image))
}

func (s *ServicesTestSuite) TestUpdateProfileImage_NameCollisionGetsSuffix() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")

	first, err := s.profiles.UpdateProfileImage(ctx, alice, "me.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)
	firstPath := first.Image

	second, err := s.profiles.UpdateProfileImage(ctx, alice, "me.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)
	s.NotEqual(firstPath, second.Image)
	s.Regexp(`^profile_pics/alice@example.com/me_[a-zA-Z0-9]{7}\.png$`, second.Image)
}

func (s *ServicesTestSuite) TestUpdateProfileImage_RemovesReplacedImage() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")

	first, err := s.profiles.UpdateProfileImage(ctx, alice, "a.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)
	s.Require().Equal("profile_pics/alice@example.com/a.png", first.Image)

	second, err := s.profiles.UpdateProfileImage(ctx, alice, "b.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)

	gone, err := s.store.Exists(ctx, "profile_pics/alice@example.com/a.png")
	s.Require().NoError(err)
	s.False(gone)
	kept, err := s.store.Exists(ctx, second.Image)
	s.Require().NoError(err)
	s.True(kept)
}

func (s *ServicesTestSuite) TestUpdateProfileImage_KeepsDefaultImage() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")
	s.Require().NoError(storage.Save(ctx, s.store, constants.DefaultProfileImage, bytes.NewReader(pngOf(s.T(), 10, 10))))

	profile, err := s.profiles.GetProfile(alice.ID)
	s.Require().NoError(err)
	s.Require().Equal(constants.DefaultProfileImage, profile.Image)

	_, err = s.profiles.UpdateProfileImage(ctx, alice, "a.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)

	exists, err := s.store.Exists(ctx, constants.DefaultProfileImage)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ServicesTestSuite) TestUpdateProfileImage_DecodeErrorAfterSave() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")

	profile, err := s.profiles.UpdateProfileImage(ctx, alice, "notes.png", bytes.NewReader([]byte("not an image")))
	s.Require().Error(err)
	s.True(thumbnail.IsDecodeError(err))
	s.Require().NotNil(profile)

	reloaded, err := s.profiles.GetProfile(alice.ID)
	s.Require().NoError(err)
	s.Equal("profile_pics/alice@example.com/notes.png", reloaded.Image)

	data, err := storage.ReadAll(ctx, s.store, reloaded.Image)
	s.Require().NoError(err)
	s.Equal([]byte("not an image"), data)
}

func (s *ServicesTestSuite) TestUpdateGroupImage() {
	ctx := context.Background()
	alice := s.mustUser("alice@example.com")
	bob := s.mustUser("bob@example.com")
	group := s.mustGroup("general", alice)

	_, err := s.profiles.UpdateGroupImage(ctx, group, bob.ID, "logo.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.ErrorIs(err, ErrNotGroupCreator)

	_, err = s.profiles.UpdateGroupImage(ctx, group, alice.ID, "..", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.ErrorIs(err, ErrInvalidFilename)

	profile, err := s.profiles.UpdateGroupImage(ctx, group, alice.ID, "logo.png", bytes.NewReader(pngOf(s.T(), 900, 900)))
	s.Require().NoError(err)
	s.Equal("group_profile_pics/general/logo.png", profile.Image)

	data, err := storage.ReadAll(ctx, s.store, profile.Image)
	s.Require().NoError(err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	s.Require().NoError(err)
	s.Equal(300, cfg.Width)
	s.Equal(300, cfg.Height)

	replaced, err := s.profiles.UpdateGroupImage(ctx, group, alice.ID, "banner.png", bytes.NewReader(pngOf(s.T(), 10, 10)))
	s.Require().NoError(err)
	exists, err := s.store.Exists(ctx, profile.Image)
	s.Require().NoError(err)
	s.False(exists)
	s.Equal("group_profile_pics/general/banner.png", replaced.Image)
}

// AI digest

type fakeCompleter struct {
	prompt string
	err    error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.prompt = req.Messages[0].Content
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  - greetings\n"}}},
	}, nil
}

func TestAIService_SummarizeMessages(t *testing.T) {
	ctx := context.Background()
	group := &models.Group{Name: "general"}
	messages := []models.Message{
		{Text: "hello", Author: models.User{Email: "a@example.com"}},
	}

	var nilService *AIService
	_, err := nilService.SummarizeMessages(ctx, group, messages)
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
	assert.Nil(t, NewAIService(""))

	fake := &fakeCompleter{}
	svc := &AIService{client: fake}

	digest, err := svc.SummarizeMessages(ctx, group, messages)
	require.NoError(t, err)
	assert.Equal(t, "- greetings", digest)
	assert.Contains(t, fake.prompt, "a@example.com: hello")
	assert.Contains(t, fake.prompt, "Group: general")

	fake.err = errors.New("rate limited")
	_, err = svc.SummarizeMessages(ctx, group, messages)
	assert.Error(t, err)

	digest, err = svc.SummarizeMessages(ctx, group, nil)
	require.NoError(t, err)
	assert.Empty(t, digest)
}
