package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    username VARCHAR(64) NOT NULL DEFAULT '',
    first_name VARCHAR(128) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'no_sub',
    last_interaction_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('no_sub', 'sub', 'pro_sub', 'teacher', 'moderator', 'admin'))
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
CREATE INDEX IF NOT EXISTS idx_users_last_interaction ON users(last_interaction_at);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOG (topics, subtopics, theory, tasks)
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create task catalog tables
-- Version: 002

CREATE TABLE IF NOT EXISTS topics (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    exam_number INTEGER NOT NULL,

    CONSTRAINT valid_exam_number CHECK (exam_number BETWEEN 1 AND 25)
);

CREATE TABLE IF NOT EXISTS subtopics (
    id BIGSERIAL PRIMARY KEY,
    topic_id BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
    title VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS theory (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    topic_id BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
    subtopic_id BIGINT REFERENCES subtopics(id) ON DELETE CASCADE,
    part INTEGER NOT NULL DEFAULT 1,
    complexity VARCHAR(20) NOT NULL DEFAULT 'basic',
    content TEXT NOT NULL,
    answer_options JSONB,
    correct_answer TEXT NOT NULL,
    theory_id BIGINT REFERENCES theory(id) ON DELETE SET NULL,
    video_url TEXT NOT NULL DEFAULT '',

    CONSTRAINT valid_part CHECK (part IN (1, 2)),
    CONSTRAINT valid_complexity CHECK (complexity IN ('basic', 'advanced', 'high'))
);

CREATE INDEX IF NOT EXISTS idx_subtopics_topic ON subtopics(topic_id);
CREATE INDEX IF NOT EXISTS idx_tasks_topic ON tasks(topic_id);
CREATE INDEX IF NOT EXISTS idx_tasks_subtopic ON tasks(subtopic_id);
CREATE INDEX IF NOT EXISTS idx_topics_exam_number ON topics(exam_number);
`

const migration002Down = `
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS theory;
DROP TABLE IF EXISTS subtopics;
DROP TABLE IF EXISTS topics;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PROGRESS (user_stats, user_progress)
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create statistics and progress tables
-- Version: 003

CREATE TABLE IF NOT EXISTS user_stats (
    user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_answers INTEGER NOT NULL DEFAULT 0,
    correct_answers INTEGER NOT NULL DEFAULT 0,
    wrong_answers INTEGER NOT NULL DEFAULT 0,
    subtopic_stats JSONB NOT NULL DEFAULT '{}'::jsonb,

    CONSTRAINT stats_consistent CHECK (total_answers = correct_answers + wrong_answers)
);

CREATE TABLE IF NOT EXISTS user_progress (
    user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_points INTEGER NOT NULL DEFAULT 0,
    weekly_points INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    best_streak INTEGER NOT NULL DEFAULT 0,
    last_active_day DATE,
    daily_answers INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT non_negative_points CHECK (total_points >= 0 AND weekly_points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_user_progress_total ON user_progress(total_points DESC);
CREATE INDEX IF NOT EXISTS idx_user_progress_weekly ON user_progress(weekly_points DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS user_progress;
DROP TABLE IF EXISTS user_stats;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create achievement catalog and unlock facts
-- Version: 004

CREATE TABLE IF NOT EXISTS achievements (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(16) NOT NULL DEFAULT '',
    condition TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_achievements (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    progress INTEGER NOT NULL DEFAULT 100,

    PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id);
`

const migration004Down = `
DROP TABLE IF EXISTS user_achievements;
DROP TABLE IF EXISTS achievements;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE REMINDERS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create reminder templates
-- Version: 005

CREATE TABLE IF NOT EXISTS reminders (
    id BIGSERIAL PRIMARY KEY,
    type VARCHAR(20) NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_reminder_type CHECK (type IN ('promo', 'inactive', 'holiday'))
);

CREATE INDEX IF NOT EXISTS idx_reminders_type_created ON reminders(type, created_at DESC);
`

const migration005Down = `
DROP TABLE IF EXISTS reminders;
`
